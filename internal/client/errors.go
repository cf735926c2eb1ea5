package client

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes and the stale-session message substring recognized from the
// backend's auth surface. These mirror the server contract.
const (
	codeSessionNotFound = "session_not_found"

	staleSessionMessage = "Session from session_id claim in JWT does not exist"
)

// APIError is a structured failure returned by the backend. Expected auth
// failures (bad credentials, stale sessions) arrive as APIErrors so callers
// can classify them instead of crashing.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStaleSession reports whether err indicates the session referenced by the
// caller's token no longer exists server-side.
func IsStaleSession(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return isStaleSessionBody(apiErr.Code, apiErr.Message)
}

func isStaleSessionBody(code, message string) bool {
	return code == codeSessionNotFound || strings.Contains(message, staleSessionMessage)
}
