package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func logOneRequest(t *testing.T, status int, path string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"code":"x","message":"y"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestRequestLoggerRecordsRequest(t *testing.T) {
	entry := logOneRequest(t, http.StatusOK, "/api/platforms")

	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/api/platforms" {
		t.Errorf("path = %v, want /api/platforms", entry["path"])
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if entry["bytes"] == float64(0) {
		t.Error("expected non-zero bytes for a written body")
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

// Rejected tokens and revoked sessions are routine on the auth surface, so
// a 401 there must not log above info.
func TestRequestLoggerAuthUnauthorizedStaysInfo(t *testing.T) {
	entry := logOneRequest(t, http.StatusUnauthorized, "/auth/session")
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO for 401 on /auth/", entry["level"])
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		path   string
		want   string
	}{
		{http.StatusUnauthorized, "/api/platforms", "WARN"},
		{http.StatusNotFound, "/api/accounts/xyz", "WARN"},
		{http.StatusInternalServerError, "/auth/login", "ERROR"},
		{http.StatusNoContent, "/auth/logout", "INFO"},
	}
	for _, tt := range tests {
		entry := logOneRequest(t, tt.status, tt.path)
		if entry["level"] != tt.want {
			t.Errorf("%d %s: level = %v, want %v", tt.status, tt.path, entry["level"], tt.want)
		}
	}
}
