package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/cache"
	"github.com/hoangpn/socialite/backend/internal/pubsub"
	"github.com/hoangpn/socialite/backend/internal/realtime"
	"github.com/hoangpn/socialite/backend/internal/repositories"
	"github.com/hoangpn/socialite/backend/internal/router"
	"github.com/hoangpn/socialite/backend/internal/services"
	"github.com/hoangpn/socialite/backend/pkg/auth"
	"github.com/hoangpn/socialite/backend/pkg/config"
	"github.com/hoangpn/socialite/backend/pkg/logging"
	"github.com/hoangpn/socialite/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	mongoDB := db.Mongo.Database(cfg.MongoDatabase)

	// Shared components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	gateway := realtime.NewGateway(jwtManager, logger)
	bus := pubsub.NewLocalBus()

	userRepo := repositories.NewMongoUserRepository(mongoDB)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB)
	conversationRepo := repositories.NewMongoConversationRepository(mongoDB)
	messageRepo := repositories.NewMongoMessageRepository(mongoDB)

	notifications := services.NewNotificationService(notificationRepo, userRepo, gateway, logger)
	chat := services.NewChatService(conversationRepo, messageRepo, userRepo, bus, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Forward chat events from the bus to connected clients
	bridge := services.NewEventBridge(bus, gateway, logger)
	bridge.Start(ctx)

	// Periodically flush cached view counters back to Mongo
	viewCounter := cache.NewViewCounter(db.Redis, postRepo, logger)
	go viewCounter.Start(ctx, cfg.ViewSyncEvery)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Deps{
		Config:        cfg,
		Mongo:         mongoDB,
		JWTManager:    jwtManager,
		Gateway:       gateway,
		Notifications: notifications,
		Chat:          chat,
		ViewCounter:   viewCounter,
		Logger:        logger,
	})

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
