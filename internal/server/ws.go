package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"todo/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	snapshotWriteTimeout = 10 * time.Second
	snapshotBuffer       = 8
)

// handleWatchTodos upgrades the connection and streams the complete item
// list: once on connect, then again after every change to the store.
// Each message replaces everything the client holds.
func (s *Server) handleWatchTodos(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	snapshots := make(chan []models.Item, snapshotBuffer)
	cancel := s.store.Subscribe(func(items []models.Item) {
		select {
		case snapshots <- items:
		default:
			// Slow client. Dropping is safe: every snapshot is complete,
			// so the next delivery carries the full state anyway.
		}
	})
	defer cancel()

	// The client never sends data; the read pump only notices the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	items, err := s.store.List(c.Request.Context())
	if err != nil {
		s.logger.Error("snapshot fetch failed", slog.String("error", err.Error()))
		return
	}
	if err := writeSnapshot(ws, items); err != nil {
		return
	}

	for {
		select {
		case items := <-snapshots:
			if err := writeSnapshot(ws, items); err != nil {
				s.logger.Info("snapshot subscriber gone", slog.String("error", err.Error()))
				return
			}
		case <-done:
			return
		}
	}
}

func writeSnapshot(ws *websocket.Conn, items []models.Item) error {
	_ = ws.SetWriteDeadline(time.Now().Add(snapshotWriteTimeout))
	return ws.WriteJSON(gin.H{"todos": items})
}
