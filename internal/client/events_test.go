package client

import (
	"context"
	"testing"
	"time"
)

func TestOnAuthStateChangeRequiresSession(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)

	if _, err := c.OnAuthStateChange(context.Background(), func(AuthEvent) {}); err == nil {
		t.Error("expected error without a session")
	}
}

func TestOnAuthStateChangeDeliversEventsInOrder(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	events := make(chan AuthEvent, 8)
	sub, err := c.OnAuthStateChange(context.Background(), func(ev AuthEvent) {
		events <- ev
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	// Let the server register the connection before publishing.
	time.Sleep(50 * time.Millisecond)

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := c.SignOut(context.Background(), ScopeGlobal); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	first := recvEvent(t, events)
	if first.Type != EventTokenRefreshed {
		t.Errorf("first event = %q, want %q", first.Type, EventTokenRefreshed)
	}
	if first.Session == nil || first.Session.AccessToken == "" {
		t.Error("refresh event should carry a session payload")
	}

	second := recvEvent(t, events)
	if second.Type != EventSignedOut {
		t.Errorf("second event = %q, want %q", second.Type, EventSignedOut)
	}
	if second.Session != nil {
		t.Error("sign-out event should not carry a session")
	}
}

func TestSubscriptionDoneOnUnsubscribe(t *testing.T) {
	ts, _ := newTestBackend(t)
	c := newTestClient(t, ts.URL)
	signUpHelper(t, c, "alice@example.com")

	sub, err := c.OnAuthStateChange(context.Background(), func(AuthEvent) {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sub.Unsubscribe()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}

func recvEvent(t *testing.T, ch <-chan AuthEvent) AuthEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth event")
		return AuthEvent{}
	}
}
