package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/chat"
	"conversation-service/internal/middleware"
	"conversation-service/internal/rabbitmq"
)

// ReadHandler serves read-marker and unread-count endpoints.
type ReadHandler struct {
	gateway     *chat.Gateway
	publisher   rabbitmq.Publisher
	environment string
}

// NewReadHandler builds a ReadHandler.
func NewReadHandler(gateway *chat.Gateway, publisher rabbitmq.Publisher, environment string) *ReadHandler {
	return &ReadHandler{gateway: gateway, publisher: publisher, environment: environment}
}

// MarkRead moves the caller's read marker and fans the new position out.
func (h *ReadHandler) MarkRead(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	userID := middleware.UserID(c)

	event, err := h.gateway.MarkRead(c.Request.Context(), conversationID, userID)
	if err != nil {
		writeChatError(c, err)
		return
	}

	publishDomainEvent(c, h.publisher, h.environment, "read_marker", map[string]any{
		"conversation_id": event.ConversationID,
		"reader_user_id":  event.ReaderUserID,
		"last_read_at":    event.LastReadAt,
	})
	c.JSON(http.StatusOK, event)
}

// ReadState reports both read markers of a direct conversation plus the
// last own message the peer has seen.
func (h *ReadHandler) ReadState(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	userID := middleware.UserID(c)

	state, err := h.gateway.ReadState(c.Request.Context(), conversationID, userID)
	if err != nil {
		writeChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// UnreadCounts returns the caller's per-conversation and total unread
// counts.
func (h *ReadHandler) UnreadCounts(c *gin.Context) {
	userID := middleware.UserID(c)

	counts, total, err := h.gateway.UnreadCounts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute unread counts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalCount": total, "conversationCounts": counts})
}
