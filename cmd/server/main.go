package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/social/internal/events"
	"github.com/anonto42/nano-midea/social/internal/handlers"
	"github.com/anonto42/nano-midea/social/internal/realtime"
	"github.com/anonto42/nano-midea/social/internal/router"
	"github.com/anonto42/nano-midea/social/internal/storage"
	"github.com/anonto42/nano-midea/social/pkg/config"
	"github.com/anonto42/nano-midea/social/pkg/firebase"
	"github.com/anonto42/nano-midea/social/pkg/logger"
	"github.com/anonto42/nano-midea/social/validators"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	sugar := zl.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize databases", "error", err)
	}
	defer db.CloseDB()

	deps := router.Dependencies{
		Config:    cfg,
		Postgres:  db.Postgres,
		Mongo:     db.Mongo,
		Publisher: events.Nop{},
		Log:       sugar,
	}

	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			sugar.Fatalw("failed to initialize Firebase", "error", err)
		}
		deps.FirebaseAuth = app.AuthClient
		sugar.Info("Firebase auth client initialized")
	} else {
		sugar.Warn("FIREBASE_CREDENTIALS_PATH not set, firebase login disabled")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Fatalw("failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		deps.Presence = realtime.NewRedisPresence(rdb, "social")
		sugar.Infow("presence backed by Redis", "addr", cfg.RedisAddr)
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		deps.Publisher = publisher
		sugar.Infow("notification events go to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.S3Bucket != "" {
		store, err := storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Endpoint)
		if err != nil {
			sugar.Fatalw("failed to initialize S3", "error", err)
		}
		deps.Attachments = store
	} else {
		sugar.Warn("AWS_BUCKET_NAME not set, file uploads disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(sugar)
	config.SetupMiddleware(e, cfg, zl)

	if _, err := router.SetupRoutes(e, deps); err != nil {
		sugar.Fatalw("failed to set up routes", "error", err)
	}

	go func() {
		sugar.Infow("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
