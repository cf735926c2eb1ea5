package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/techgaint000/SecureAccountManager/internal/auth"
)

// HandleEvents returns an HTTP handler that upgrades connections to WebSocket
// and streams the authenticated user's auth-state-change events. It must sit
// behind the auth middleware so the user identity is already in context.
func HandleEvents(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
	}
}
