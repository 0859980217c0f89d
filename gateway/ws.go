package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool {
		// The gateway binds to an internal address; origin checks are
		// the deployment's concern.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWebSocket streams pipeline events to a connected client. The first
// frame is always the current status snapshot.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.requestsFailed.Add(1)
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	events, cancel := s.pipeline.Subscribe()
	defer cancel()
	defer conn.Close()

	s.logger.Info("websocket client connected", "remote", conn.RemoteAddr().String())

	if err := s.writeFrame(conn, map[string]any{
		"kind":   "status",
		"status": s.pipeline.Status(),
	}); err != nil {
		return
	}

	// Drain client frames so close and pong handling work. Clients do not
	// send application data.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-clientGone:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := s.writeFrame(conn, event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, payload any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(payload)
}
