package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 3; i++ {
		if !rl.Allow("key", 3, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("key", 3, time.Minute) {
		t.Error("request over limit should be denied")
	}
	// Different key is unaffected
	if !rl.Allow("other", 3, time.Minute) {
		t.Error("different key should be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("key", 1, 10*time.Millisecond) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("key", 1, 10*time.Millisecond) {
		t.Fatal("second request should be denied")
	}

	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("key", 1, 10*time.Millisecond) {
		t.Error("request after window should be allowed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	keyFunc := func(r *http.Request) string { return "fixed" }

	handler := RateLimit(rl, keyFunc, 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
}
