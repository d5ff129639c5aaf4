package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/cache"
	"github.com/hoangpn/socialite/backend/internal/handlers"
	"github.com/hoangpn/socialite/backend/internal/middleware"
	"github.com/hoangpn/socialite/backend/internal/realtime"
	"github.com/hoangpn/socialite/backend/internal/repositories"
	"github.com/hoangpn/socialite/backend/internal/services"
	"github.com/hoangpn/socialite/backend/pkg/auth"
	"github.com/hoangpn/socialite/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// Deps carries the shared components the routes are built on.
type Deps struct {
	Config        *config.Config
	Mongo         *mongo.Database
	JWTManager    *auth.JWTManager
	Gateway       *realtime.Gateway
	Notifications *services.NotificationService
	Chat          *services.ChatService
	ViewCounter   *cache.ViewCounter
	Logger        *zap.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// Realtime delivery; the handler authenticates before upgrading.
	e.GET("/ws", d.Gateway.HandleWebSocket)

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(d.Mongo)
	tokenRepo := repositories.NewMongoRefreshTokenRepository(d.Mongo)
	postRepo := repositories.NewMongoPostRepository(d.Mongo)
	commentRepo := repositories.NewMongoCommentRepository(d.Mongo)
	savedPostRepo := repositories.NewMongoSavedPostRepository(d.Mongo)
	followRepo := repositories.NewMongoFollowRepository(d.Mongo)
	friendRepo := repositories.NewMongoFriendRepository(d.Mongo)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, tokenRepo, d.JWTManager, d.Config.RefreshTokenTTL)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(d.JWTManager))
	authHandler.RegisterSessionRoutes(api)

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterUserRoutes(api)
	api.GET("/users/:id/online", func(c echo.Context) error {
		return c.JSON(200, echo.Map{"success": true, "data": echo.Map{
			"online": d.Gateway.IsOnline(c.Param("id")),
		}})
	})

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, d.Notifications, d.ViewCounter, d.Logger)
	postHandler.RegisterPostRoutes(api)

	// Saved post routes
	savedPostHandler := handlers.NewSavedPostHandler(savedPostRepo, postRepo)
	savedPostHandler.RegisterSavedPostRoutes(api)

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, d.Notifications, d.Logger)
	commentHandler.RegisterCommentRoutes(api)

	// Follow routes
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, d.Notifications, d.Logger)
	followHandler.RegisterFollowRoutes(api)

	// Friendship routes
	friendHandler := handlers.NewFriendHandler(friendRepo, userRepo, d.Notifications, d.Logger)
	friendHandler.RegisterFriendRoutes(api)

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(d.Notifications, d.Logger)
	notificationHandler.RegisterNotificationRoutes(api)

	// Conversation and message routes
	chatHandler := handlers.NewChatHandler(d.Chat, d.Logger)
	chatHandler.RegisterChatRoutes(api)

	d.Logger.Info("routes configured")
}
