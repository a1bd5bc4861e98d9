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
	txcmd "github.com/eaglebank/ledger/transaction-service/internal/command"
	"github.com/eaglebank/ledger/transaction-service/internal/config"
	"github.com/eaglebank/ledger/transaction-service/internal/handler"
	txqry "github.com/eaglebank/ledger/transaction-service/internal/query"
	"github.com/eaglebank/ledger/transaction-service/internal/repository"
	"github.com/eaglebank/ledger/transaction-service/migrations"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New("transaction-service", cfg.Log.Level))

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

	writeRepo := repository.NewTransactionWriteRepository(db)
	readRepo := repository.NewTransactionReadRepository(db, redis.Client, cfg.CacheTTL)

	commandSvc := txcmd.NewTransactionCommandService(writeRepo, readRepo, publisher)
	querySvc := txqry.NewTransactionQueryService(readRepo)

	transactionHandler := handler.NewTransactionHandler(commandSvc, querySvc)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1", middleware.AuthMiddleware(tokens))
	{
		v1.GET("/account/balance", transactionHandler.GetBalance)

		transactions := v1.Group("/transactions")
		transactions.POST("", transactionHandler.CreateTransaction)
		transactions.GET("", transactionHandler.ListTransactions)
		transactions.GET("/:transactionId", transactionHandler.GetTransaction)
		transactions.PATCH("/:transactionId", transactionHandler.UpdateTransaction)
		transactions.DELETE("/:transactionId", transactionHandler.DeleteTransaction)
	}

	// Removing a user removes their ledger.
	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "transaction-service-group",
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

	slog.Info("transaction service starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
