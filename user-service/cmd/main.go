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

	"github.com/eaglebank/ledger/shared/database"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/logging"
	"github.com/eaglebank/ledger/shared/middleware"
	redisClient "github.com/eaglebank/ledger/shared/redis"
	"github.com/eaglebank/ledger/shared/token"
	usercmd "github.com/eaglebank/ledger/user-service/internal/command"
	"github.com/eaglebank/ledger/user-service/internal/config"
	"github.com/eaglebank/ledger/user-service/internal/handler"
	userqry "github.com/eaglebank/ledger/user-service/internal/query"
	"github.com/eaglebank/ledger/user-service/internal/repository"
	"github.com/eaglebank/ledger/user-service/migrations"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New("user-service", cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Redis connection (read model cache + event streaming)
	redis, err := redisClient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client, cfg.Redis.StreamMaxLen)

	writeRepo := repository.NewUserWriteRepository(db)
	readRepo := repository.NewUserReadRepository(db, redis.Client, cfg.CacheTTL)

	commandSvc := usercmd.NewUserCommandService(writeRepo, readRepo, publisher)
	querySvc := userqry.NewUserQueryService(readRepo, writeRepo)

	userHandler := handler.NewUserHandler(commandSvc, querySvc)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := router.Group("/v1/users")
	users.POST("", userHandler.CreateUser)
	if cfg.AdminEnabled() {
		admin := users.Group("", gin.BasicAuth(gin.Accounts{cfg.AdminUsername: cfg.AdminPassword}))
		admin.GET("", userHandler.ListUsers)
		admin.GET("/:userId", userHandler.GetUser)
	} else {
		slog.Warn("admin credentials not configured, user listing disabled")
	}

	account := router.Group("/v1/account", middleware.AuthMiddleware(tokens))
	{
		account.GET("", userHandler.GetProfile)
		account.PATCH("/profile", userHandler.UpdateProfile)
		account.PATCH("/password", userHandler.UpdatePassword)
		account.DELETE("", userHandler.DeleteAccount)
	}

	// A login elsewhere makes the cached last-seen time stale.
	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "user-service-group",
			Consumer: cfg.Consumer,
			Stream:   events.UserEventsStream,
			Handler:  commandSvc.HandleUserEvent,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("subscriber stopped", "error", err)
		}
	}()

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

	slog.Info("user service starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
