package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"conversation-service/internal/chat"
	"conversation-service/internal/rabbitmq"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, sessions *chat.SessionRegistry, publisher rabbitmq.Publisher, environment string, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/publish-test", func(c *gin.Context) {
		envelope := rabbitmq.NewEnvelope("debug_test", environment, requestIDFromContext(c), gin.H{"status": "ok"})
		if err := publisher.Publish(c.Request.Context(), "conversation_events.debug_test", envelope); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "publish failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": rabbitmq.Mode(publisher)})
	})

	router.GET("/debug/presence/:user_id", func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "online": sessions.IsOnline(userID)})
	})
}
