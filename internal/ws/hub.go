package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"conversation-service/internal/observability"
)

// Hub maintains each user's set of live websocket connections. A user may
// hold several at once (multiple tabs); every event published for a user
// is written to all of them.
type Hub struct {
	conns map[int64]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[int64]map[*websocket.Conn]ConnInfo)}
}

// Add registers a connection under the user's private channel.
func (h *Hub) Add(userID int64, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[userID]; !ok {
		h.conns[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.conns[userID][conn] = info
}

// Remove drops a connection; the user's entry disappears with its last one.
func (h *Hub) Remove(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.conns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Publish writes the event to every connection the user holds. Dead
// connections are closed and dropped; the error never reaches the caller.
func (h *Hub) Publish(userID int64, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Warn("event marshal failed")
		return
	}

	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Debug("websocket write error")
			conn.Close()
			h.Remove(userID, conn)
			observability.IncWSEvent("ws_error")
		}
	}
}
