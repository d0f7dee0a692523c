package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/friends"
	"conversation-service/internal/middleware"
	"conversation-service/internal/repositories"
)

// ConversationHandler manages conversation lifecycle endpoints.
type ConversationHandler struct {
	conversations repositories.ConversationRepository
	friends       friends.Provider
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations repositories.ConversationRepository, friendsProvider friends.Provider) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, friends: friendsProvider}
}

// Start creates or returns the direct conversation with a friend.
func (h *ConversationHandler) Start(c *gin.Context) {
	var req struct {
		FriendID int64 `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	if userID == req.FriendID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start conversation with yourself"})
		return
	}

	areFriends, err := h.friends.AreFriends(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to validate friendship"})
		return
	}
	if !areFriends {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return
	}

	conv, err := h.conversations.GetOrCreateDirect(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// List returns the conversations visible to the authenticated user.
func (h *ConversationHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)

	summaries, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// HideForMe soft-deletes the caller's membership; history survives and the
// conversation resurfaces on the next message.
func (h *ConversationHandler) HideForMe(c *gin.Context) {
	conversationID, ok := conversationIDParam(c)
	if !ok {
		return
	}
	userID := middleware.UserID(c)

	if err := h.conversations.HideForUser(c.Request.Context(), conversationID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not hide conversation"})
		return
	}

	c.Status(http.StatusNoContent)
}

func conversationIDParam(c *gin.Context) (int64, bool) {
	conversationID, err := strconv.ParseInt(c.Param("conversation_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}
	return conversationID, true
}
