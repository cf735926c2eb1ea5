package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Auth-state-change event types pushed to connected clients.
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// Event is an auth-state-change notification. Session carries the session
// payload for SIGNED_IN and TOKEN_REFRESHED; it is empty for SIGNED_OUT.
type Event struct {
	Type    string          `json:"event"`
	Session json.RawMessage `json:"session,omitempty"`
}

// NewEvent builds an Event, marshalling the optional session payload.
func NewEvent(eventType string, session any) (Event, error) {
	ev := Event{Type: eventType}
	if session != nil {
		data, err := json.Marshal(session)
		if err != nil {
			return Event{}, err
		}
		ev.Session = data
	}
	return ev, nil
}

// Hub maintains the set of connected clients and delivers auth events to all
// connections belonging to a user, in publish order.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Publish sends an event to every connection owned by the given user.
func (h *Hub) Publish(userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.userID != userID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the publisher.
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
