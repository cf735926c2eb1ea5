package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

// Auth-state-change event types delivered to subscribers.
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// AuthEvent is one auth-state-change notification. Session is nil for
// SIGNED_OUT.
type AuthEvent struct {
	Type    string
	Session *model.AuthSession
}

type wireEvent struct {
	Type    string          `json:"event"`
	Session json.RawMessage `json:"session"`
}

// AuthStateFunc handles one auth-state-change event. Handlers run on the
// subscription's goroutine, so events arrive in order.
type AuthStateFunc func(ev AuthEvent)

// Subscription is a live auth-event stream. Unsubscribe closes it; Done is
// closed once the read loop exits.
type Subscription struct {
	conn *websocket.Conn
	done chan struct{}
}

// Unsubscribe closes the stream. Safe to call after the stream has already
// ended.
func (s *Subscription) Unsubscribe() {
	s.conn.Close(websocket.StatusNormalClosure, "unsubscribe")
}

// Done is closed when the subscription's read loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// OnAuthStateChange subscribes to the backend's auth event stream for the
// signed-in user. The handler is invoked once per event, in delivery order,
// until the subscription ends.
func (c *Client) OnAuthStateChange(ctx context.Context, fn AuthStateFunc) (*Subscription, error) {
	access, _ := c.tokens()
	if access == "" {
		return nil, fmt.Errorf("subscribe to auth events: no session")
	}

	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/auth/events"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + access}},
	})
	if err != nil {
		return nil, fmt.Errorf("dial auth events: %w", err)
	}

	sub := &Subscription{conn: conn, done: make(chan struct{})}
	go sub.readLoop(fn)
	return sub, nil
}

func (s *Subscription) readLoop(fn AuthStateFunc) {
	defer close(s.done)
	defer s.conn.Close(websocket.StatusNormalClosure, "")

	ctx := context.Background()
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}
		var we wireEvent
		if err := json.Unmarshal(data, &we); err != nil {
			continue
		}
		ev := AuthEvent{Type: we.Type}
		if len(we.Session) > 0 {
			var sess model.AuthSession
			if err := json.Unmarshal(we.Session, &sess); err == nil {
				ev.Session = &sess
			}
		}
		fn(ev)
	}
}
