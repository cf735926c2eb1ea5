package client

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/techgaint000/SecureAccountManager/internal/database"
	"github.com/techgaint000/SecureAccountManager/internal/server"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBackend spins up the real backend on an in-memory database.
func newTestBackend(t *testing.T) (*httptest.Server, func(query string, args ...any)) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := server.New(db, server.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Minute,
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, discardLogger())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("exec %q: %v", query, err)
		}
	}
	return ts, exec
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cache := NewTokenCache(filepath.Join(t.TempDir(), "tokens.json"))
	return NewClient(baseURL, cache)
}

func signUpHelper(t *testing.T, c *Client, email string) {
	t.Helper()
	if _, err := c.SignUp(context.Background(), email, "hunter2secret"); err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}
