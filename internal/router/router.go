package router

import (
	"fmt"

	"github.com/anonto42/nano-midea/social/internal/events"
	"github.com/anonto42/nano-midea/social/internal/handlers"
	"github.com/anonto42/nano-midea/social/internal/metrics"
	"github.com/anonto42/nano-midea/social/internal/middleware"
	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/realtime"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"github.com/anonto42/nano-midea/social/internal/services"
	"github.com/anonto42/nano-midea/social/internal/storage"
	"github.com/anonto42/nano-midea/social/pkg/config"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the connections and optional integrations the routes are built on.
// FirebaseAuth, Attachments, Presence and Publisher may be nil.
type Dependencies struct {
	Config       *config.Config
	Postgres     *gorm.DB
	Mongo        *mongo.Client
	FirebaseAuth handlers.IDTokenVerifier
	Attachments  storage.AttachmentStore
	Presence     realtime.PresenceTracker
	Publisher    events.Publisher
	Log          *zap.SugaredLogger
}

// SetupRoutes migrates the relational schema, wires every component and registers all routes.
// It returns the connection registry so the caller can report on it.
func SetupRoutes(e *echo.Echo, deps Dependencies) (*realtime.Registry, error) {
	cfg, log := deps.Config, deps.Log

	if err := deps.Postgres.AutoMigrate(&models.User{}, &models.Follow{}, &models.Notification{}, &models.Like{}, &models.Comment{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("PostgreSQL auto-migrations completed")

	// --- Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)
	postRepo := repositories.NewMongoPostRepository(deps.Mongo.Database(cfg.MongoDatabase))

	// --- Real-time delivery ---
	registry := realtime.NewRegistry()
	presence := deps.Presence
	if presence == nil {
		presence = realtime.NewRegistryPresence(registry)
	}
	dispatcher := realtime.NewDispatcher(registry, log.Named("push"))
	notificationService := services.NewNotificationService(
		notificationRepo,
		services.NewFanoutEngine(userRepo),
		dispatcher,
		deps.Publisher,
		log.Named("notifications"),
	)

	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL,
		middleware.WithRefreshTokens(cfg.JWTRefreshSecret, cfg.RefreshTokenTTL))
	gateway := realtime.NewGateway(registry, presence, tokens, middleware.HandshakeToken, realtime.GatewayOptions{
		PingInterval: cfg.WSPingInterval,
		WriteTimeout: cfg.WSWriteTimeout,
		SendBuffer:   cfg.WSSendBuffer,
	}, log.Named("ws"))

	// --- Unauthenticated ---
	health := handlers.NewHealthHandler(registry.Len)
	e.GET("/health", health.HealthCheck)
	e.GET("/metrics", metrics.Handler())
	e.GET("/ws", gateway.Handle)

	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userRepo, deps.FirebaseAuth, tokens, !cfg.IsDevelopment(), log.Named("auth")).
		RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(tokens))

	handlers.NewUserHandler(userRepo, followRepo).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(followRepo, userRepo, notificationService).RegisterFollowRoutes(api)
	handlers.NewPostHandler(postRepo, deps.Attachments, notificationService, log.Named("posts")).RegisterPostRoutes(api)
	handlers.NewLikeHandler(likeRepo, postRepo, notificationService).RegisterLikeRoutes(api)
	handlers.NewCommentHandler(commentRepo, postRepo, notificationService).RegisterCommentRoutes(api)
	handlers.NewNotificationHandler(notificationService).RegisterNotificationRoutes(api)
	handlers.NewPresenceHandler(presence).RegisterPresenceRoutes(api)

	log.Info("all routes configured")
	return registry, nil
}
