package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/chat"
	"conversation-service/internal/middleware"
)

// PresenceHandler serves the on-demand presence snapshot.
type PresenceHandler struct {
	gateway *chat.Gateway
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(gateway *chat.Gateway) *PresenceHandler {
	return &PresenceHandler{gateway: gateway}
}

// Snapshot reports the current online state of the caller's friends.
func (h *PresenceHandler) Snapshot(c *gin.Context) {
	userID := middleware.UserID(c)

	snapshot, err := h.gateway.PresenceSnapshot(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load friends"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
