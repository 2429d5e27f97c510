package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(s.opts.AllowedOrigins) == 0 || slices.Contains(s.opts.AllowedOrigins, origin)
		},
	}
}

// serveWS streams a fresh today-view to the client whenever the user's data
// changes, starting with the current one.
func (s *Server) serveWS(c *gin.Context) {
	userID := c.GetString(userIDKey)
	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := s.tracker(userID).Watch(ctx)
	if err != nil {
		s.logger.Printf("user %s: websocket watch: %v", userID, err)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "watch failed"))
		return
	}

	id := s.register(userID)
	defer s.unregister(id)

	// read loop ends on client close or error
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(v); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) register(userID string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.clients[id] = userID
	s.mu.Unlock()
	s.logger.Printf("user %s: websocket client %s connected", userID, id)
	return id
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	userID := s.clients[id]
	delete(s.clients, id)
	s.mu.Unlock()
	s.logger.Printf("user %s: websocket client %s disconnected", userID, id)
}
