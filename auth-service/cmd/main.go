package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/ledger/auth-service/internal/config"
	"github.com/eaglebank/ledger/auth-service/internal/handler"
	"github.com/eaglebank/ledger/auth-service/internal/repository"
	"github.com/eaglebank/ledger/auth-service/internal/service"
	"github.com/eaglebank/ledger/shared/database"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/logging"
	"github.com/eaglebank/ledger/shared/middleware"
	redisClient "github.com/eaglebank/ledger/shared/redis"
	"github.com/eaglebank/ledger/shared/token"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New("auth-service", cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (user-service schema, owned and migrated there)
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis connection (user.seen events for the user service's read model)
	redis, err := redisClient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	userRepo := repository.NewUserRepository(db)
	publisher := events.NewPublisher(redis.Client, cfg.Redis.StreamMaxLen)
	authSvc := service.NewAuthService(userRepo, token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL), publisher)
	authHandler := handler.NewAuthHandler(authSvc)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	v1 := router.Group("/v1/auth")
	{
		v1.POST("/login", authHandler.Login)
		v1.POST("/refresh", authHandler.RefreshToken)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("auth service starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
