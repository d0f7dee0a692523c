package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"conversation-service/internal/rabbitmq"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// publishDomainEvent emits one audit event onto the firehose. Detached from
// the request context so a client disconnect cannot cancel the publish.
func publishDomainEvent(c *gin.Context, publisher rabbitmq.Publisher, environment, eventType string, payload map[string]any) {
	envelope := rabbitmq.NewEnvelope(eventType, environment, requestIDFromContext(c), payload)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = publisher.Publish(ctx, "conversation_events."+eventType, envelope)
}
