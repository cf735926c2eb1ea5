package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   nil,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "u1")
	c2 := mockClient(hub, "u2")

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "u1")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestPublishTargetsOwner(t *testing.T) {
	hub := NewHub(slog.Default())

	alice1 := mockClient(hub, "alice")
	alice2 := mockClient(hub, "alice")
	bob := mockClient(hub, "bob")
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)

	ev, err := NewEvent(EventSignedOut, nil)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	hub.Publish("alice", ev)

	for i, c := range []*Client{alice1, alice2} {
		select {
		case data := <-c.send:
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != EventSignedOut {
				t.Errorf("client %d: event = %q, want %q", i, got.Type, EventSignedOut)
			}
		default:
			t.Errorf("alice client %d did not receive event", i)
		}
	}

	select {
	case <-bob.send:
		t.Error("bob should not receive alice's event")
	default:
	}
}

func TestPublishOrder(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "alice")
	hub.Register(c)

	types := []string{EventSignedIn, EventTokenRefreshed, EventSignedOut}
	for _, typ := range types {
		ev, _ := NewEvent(typ, nil)
		hub.Publish("alice", ev)
	}

	for i, want := range types {
		data := <-c.send
		var got Event
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != want {
			t.Errorf("event %d = %q, want %q", i, got.Type, want)
		}
	}
}

func TestPublishWithSessionPayload(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "alice")
	hub.Register(c)

	ev, err := NewEvent(EventSignedIn, map[string]string{"access_token": "tok"})
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	hub.Publish("alice", ev)

	data := <-c.send
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Session) == 0 {
		t.Fatal("expected session payload")
	}
	var payload map[string]string
	if err := json.Unmarshal(got.Session, &payload); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if payload["access_token"] != "tok" {
		t.Errorf("access_token = %q, want %q", payload["access_token"], "tok")
	}
}
