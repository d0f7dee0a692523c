package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"conversation-service/internal/chat"
	"conversation-service/internal/observability"
	"conversation-service/internal/rabbitmq"
)

// TokenVerifier resolves a bearer token to an authenticated user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Handler owns the websocket attach endpoint. Each accepted connection is
// one live session in the registry; the read loop carries client commands
// to the gateway until the peer goes away.
type Handler struct {
	hub         *Hub
	sessions    *chat.SessionRegistry
	gateway     *chat.Gateway
	verifier    TokenVerifier
	publisher   rabbitmq.Publisher
	environment string
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub, sessions *chat.SessionRegistry, gateway *chat.Gateway, verifier TokenVerifier, publisher rabbitmq.Publisher, environment string) *Handler {
	return &Handler{
		hub:         hub,
		sessions:    sessions,
		gateway:     gateway,
		verifier:    verifier,
		publisher:   publisher,
		environment: environment,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is an inbound command from a connected client.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
}

// Handle upgrades the connection, registers the session and serves the
// read loop.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("conversation-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Add(userID, conn, info)
	nowOnline := h.sessions.Connect(userID)
	if nowOnline {
		observability.IncPresenceTransition(true)
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishConnEvent(ctx, "ws_connect", info, "")

	go h.readLoop(conn, info)
}

func (h *Handler) readLoop(conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Remove(info.UserID, conn)
		if nowOffline := h.sessions.Disconnect(info.UserID); nowOffline {
			observability.IncPresenceTransition(false)
		}
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishConnEvent(context.Background(), "ws_disconnect", info, closeReason)
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}
		h.dispatch(payload, info)
	}
}

// dispatch runs one client command. The command context is detached from
// the connection: a disconnect mid-send does not cancel an in-flight
// append, and the result still reaches the user's other tabs.
func (h *Handler) dispatch(payload []byte, info ConnInfo) {
	var frame clientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		logrus.WithField("conn_id", info.ConnID).Debug("ignoring malformed ws frame")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch frame.Type {
	case "SEND":
		if _, err := h.gateway.Send(ctx, frame.ConversationID, info.UserID, frame.Content); err != nil {
			h.reportCommandError(frame, info, err)
		}
	case "MARK_READ":
		if _, err := h.gateway.MarkRead(ctx, frame.ConversationID, info.UserID); err != nil {
			h.reportCommandError(frame, info, err)
		}
	case "PRESENCE_SNAPSHOT":
		snapshot, err := h.gateway.PresenceSnapshot(ctx, info.UserID)
		if err != nil {
			h.reportCommandError(frame, info, err)
			return
		}
		h.hub.Publish(info.UserID, snapshot)
	default:
		logrus.WithFields(logrus.Fields{"conn_id": info.ConnID, "type": frame.Type}).
			Debug("unknown ws frame type")
	}
}

func (h *Handler) reportCommandError(frame clientFrame, info ConnInfo, err error) {
	// Content never appears here, only identifiers.
	logrus.WithFields(logrus.Fields{
		"conn_id":         info.ConnID,
		"user_id":         info.UserID,
		"conversation_id": frame.ConversationID,
		"type":            frame.Type,
	}).WithError(err).Warn("ws command rejected")

	if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrMessageTooLong) || errors.Is(err, chat.ErrNotParticipant) {
		h.hub.Publish(info.UserID, gin.H{"type": "ERROR", "reason": err.Error(), "conversationId": frame.ConversationID})
	}
}

func (h *Handler) publishConnEvent(ctx context.Context, event string, info ConnInfo, reason string) {
	envelope := rabbitmq.NewEnvelope("ws_events", h.environment, info.RequestID, map[string]any{
		"event":       event,
		"conn_id":     info.ConnID,
		"user_id":     info.UserID,
		"device_id":   info.DeviceID,
		"ip":          info.IP,
		"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
		"reason":      reason,
	})
	_ = h.publisher.Publish(ctx, "ws_events.conversations", envelope)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
