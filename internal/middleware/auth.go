package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/techgaint000/SecureAccountManager/internal/auth"
	"github.com/techgaint000/SecureAccountManager/internal/store"
	"github.com/techgaint000/SecureAccountManager/internal/token"
)

// Error codes returned by the auth surface. Clients classify on these, so
// they are part of the API contract.
const (
	CodeBadJWT          = "bad_jwt"
	CodeSessionNotFound = "session_not_found"

	// SessionNotFoundMessage is matched by substring on the client side as a
	// fallback classification, so its wording is load-bearing.
	SessionNotFoundMessage = "Session from session_id claim in JWT does not exist"
)

const bearerPrefix = "bearer "

// RequireAuth validates the bearer access token, checks that the session the
// token references still exists, and populates AuthContext. A verified token
// whose session row is gone gets the session_not_found error body; that is
// the stale-session signal the client interceptor keys on.
func RequireAuth(tokens *token.Provider, sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				writeAuthError(w, http.StatusUnauthorized, CodeBadJWT, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, CodeBadJWT, "invalid or expired access token")
				return
			}

			sess, err := sessionStore.GetByID(claims.SessionID)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "failed to validate session")
				return
			}
			if sess == nil {
				writeAuthError(w, http.StatusUnauthorized, CodeSessionNotFound, SessionNotFoundMessage)
				return
			}

			ac := auth.AuthContext{
				UserID:    claims.Subject,
				SessionID: sess.ID,
				Email:     claims.Email,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}
