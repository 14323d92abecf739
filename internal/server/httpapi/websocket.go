package httpapi

import (
	"context"
	"net/http"

	gws "github.com/gorilla/websocket"
	"github.com/nozoku/nozoku-server/internal/server/ws"
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWebSocket upgrades the connection and registers it with the hub.
// The token is already validated by withAuth (header or token query param).
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(s.hub, conn, userIDFromContext(r.Context()))
	select {
	case s.hub.Register <- client:
	case <-s.hub.Done():
		conn.Close()
		return
	}

	// The request context dies when this handler returns; the pumps outlive
	// it, so they run on their own context.
	go client.WritePump()
	go client.ReadPump(context.Background())
}
