package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/chat"
	"conversation-service/internal/middleware"
	"conversation-service/internal/rabbitmq"
	"conversation-service/internal/repositories"
)

const (
	defaultPageSize    = 20
	defaultLatestLimit = 50
	maxPageSize        = 100
)

// MessageHandler serves send and history endpoints on top of the gateway.
type MessageHandler struct {
	gateway      *chat.Gateway
	participants repositories.ParticipantRepository
	publisher    rabbitmq.Publisher
	environment  string
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(gateway *chat.Gateway, participants repositories.ParticipantRepository, publisher rabbitmq.Publisher, environment string) *MessageHandler {
	return &MessageHandler{gateway: gateway, participants: participants, publisher: publisher, environment: environment}
}

// Post appends a message and triggers delivery fan-out.
func (h *MessageHandler) Post(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	dto, err := h.gateway.Send(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		writeChatError(c, err)
		return
	}

	publishDomainEvent(c, h.publisher, h.environment, "message_persisted", map[string]any{
		"message_id":      dto.ID,
		"conversation_id": dto.ConversationID,
		"sender_id":       dto.SenderID,
		"content_length":  len(req.Content),
	})
	c.JSON(http.StatusCreated, dto)
}

// History returns one newest-first page of decrypted messages.
func (h *MessageHandler) History(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	if !h.requireMembership(c, conversationID) {
		return
	}

	page := intQuery(c, "page", 0)
	size := intQuery(c, "size", defaultPageSize)
	if page < 0 || size <= 0 || size > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paging parameters"})
		return
	}

	msgs, err := h.gateway.History(c.Request.Context(), conversationID, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "page": page, "size": size})
}

// Latest returns the newest N messages in chronological order.
func (h *MessageHandler) Latest(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	if !h.requireMembership(c, conversationID) {
		return
	}

	limit := intQuery(c, "limit", defaultLatestLimit)
	if limit <= 0 || limit > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	msgs, err := h.gateway.Latest(c.Request.Context(), conversationID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *MessageHandler) requireMembership(c *gin.Context, conversationID int64) bool {
	userID := middleware.UserID(c)
	member, err := h.participants.IsActiveParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation member"})
		return false
	}
	return true
}

func writeChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrNotDirect):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrConversationNotFound),
		errors.Is(err, repositories.ErrParticipantNotFound),
		errors.Is(err, repositories.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return val
}
