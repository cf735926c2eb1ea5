package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// maxErrorBody bounds how much of an error response the interceptor reads
// while classifying it.
const maxErrorBody = 1 << 16

// replayBody prepends already-read bytes back onto a response body while
// keeping the original closer.
type replayBody struct {
	io.Reader
	io.Closer
}

// AuthErrorInterceptor watches every auth-surface response that passes
// through the client's transport. When the backend reports that the session
// behind the caller's token no longer exists, it fires the cleanup callback
// so local state cannot reference a dead session. The response itself is
// passed through unchanged so callers still see the original failure.
type AuthErrorInterceptor struct {
	base     http.RoundTripper
	onStale  func()
	handling atomic.Bool
}

func (i *AuthErrorInterceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := i.base.RoundTrip(req)
	if err != nil || resp == nil {
		return resp, err
	}
	if !strings.HasPrefix(req.URL.Path, "/auth/") {
		return resp, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	// Callers must see the original body in full, including anything beyond
	// what was inspected for classification.
	resp.Body = replayBody{
		Reader: io.MultiReader(bytes.NewReader(body), resp.Body),
		Closer: resp.Body,
	}
	if readErr != nil {
		return resp, nil
	}

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return resp, nil
	}

	if isStaleSessionBody(payload.Code, payload.Message) {
		// The cleanup itself may issue auth requests through this same
		// transport; the flag keeps those from re-triggering cleanup.
		if i.handling.CompareAndSwap(false, true) {
			defer i.handling.Store(false)
			i.onStale()
		}
	}
	return resp, nil
}

// InstallInterceptor wraps the client's transport so stale-session responses
// trigger onStale. At most one interceptor is installed per client; a second
// install is a no-op that returns false. The returned function restores the
// previous transport.
func (c *Client) InstallInterceptor(onStale func()) (uninstall func(), installed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interceptor != nil {
		return func() {}, false
	}

	base := c.httpc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	prev := c.httpc.Transport
	i := &AuthErrorInterceptor{base: base, onStale: onStale}
	c.interceptor = i
	c.httpc.Transport = i

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.interceptor != i {
			return
		}
		c.httpc.Transport = prev
		c.interceptor = nil
	}, true
}

// handleStaleSession is the default cleanup wired by the session store: it
// attempts a local-only sign-out so the dead session's token stops being
// presented, then removes the token artifact. Failures are swallowed; the
// session is already gone server-side.
func (c *Client) handleStaleSession(ctx context.Context) {
	_ = c.SignOut(ctx, ScopeLocal)
	_ = c.ClearLocalSession()
}
