package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"conversation-service/internal/chat"
	"conversation-service/internal/config"
	"conversation-service/internal/crypto"
	"conversation-service/internal/db"
	"conversation-service/internal/friends"
	"conversation-service/internal/handlers"
	"conversation-service/internal/middleware"
	"conversation-service/internal/observability"
	"conversation-service/internal/rabbitmq"
	"conversation-service/internal/repositories"
	"conversation-service/internal/telemetry"
	"conversation-service/internal/ws"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("configuration error")
	}

	codec, err := crypto.NewCodec(cfg.MessageKey)
	if err != nil {
		logrus.WithError(err).Fatal("invalid message encryption key")
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to db")
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logrus.WithError(err).Fatal("failed to init tracing")
	}
	defer shutdownTracing(ctx)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	logrus.WithField("mode", rabbitmq.Mode(publisher)).Info("event publisher ready")

	conversationRepo := repositories.NewConversationRepo(database)
	participantRepo := repositories.NewParticipantRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	friendsClient := friends.NewClient(cfg.UserServiceURL)

	hub := ws.NewHub()
	sessions := chat.NewSessionRegistry()
	messageLog := chat.NewMessageLog(codec, messageRepo, participantRepo)
	readState := chat.NewReadStateTracker(participantRepo, messageRepo)
	gateway := chat.NewGateway(messageLog, readState, sessions, participantRepo, friendsClient, hub)

	go gateway.RunPresenceNotifier(ctx)

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)
	wsHandler := ws.NewHandler(hub, sessions, gateway, verifier, publisher, cfg.Environment)

	conversationHandler := handlers.NewConversationHandler(conversationRepo, friendsClient)
	messageHandler := handlers.NewMessageHandler(gateway, participantRepo, publisher, cfg.Environment)
	readHandler := handlers.NewReadHandler(gateway, publisher, cfg.Environment)
	presenceHandler := handlers.NewPresenceHandler(gateway)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("conversation-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.POST("/conversations/start", authMiddleware, conversationHandler.Start)
	router.GET("/conversations", authMiddleware, conversationHandler.List)
	router.DELETE("/conversations/:conversation_id/me", authMiddleware, conversationHandler.HideForMe)

	router.POST("/conversations/:conversation_id/messages", authMiddleware, messageHandler.Post)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, messageHandler.History)
	router.GET("/conversations/:conversation_id/messages/latest", authMiddleware, messageHandler.Latest)

	router.POST("/conversations/:conversation_id/read", authMiddleware, readHandler.MarkRead)
	router.GET("/conversations/:conversation_id/read-state", authMiddleware, readHandler.ReadState)
	router.GET("/chat/unread-counts", authMiddleware, readHandler.UnreadCounts)

	router.GET("/presence/snapshot", authMiddleware, presenceHandler.Snapshot)

	router.GET("/ws", wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, sessions, publisher, cfg.Environment, cfg.DebugEndpoints)

	logrus.WithField("addr", cfg.ListenAddr).Info("conversation service listening")
	if err := router.Run(cfg.ListenAddr); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}
