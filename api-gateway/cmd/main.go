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

	"github.com/eaglebank/ledger/api-gateway/internal/config"
	"github.com/eaglebank/ledger/api-gateway/internal/proxy"
	"github.com/eaglebank/ledger/shared/logging"
	"github.com/eaglebank/ledger/shared/middleware"
	redisClient "github.com/eaglebank/ledger/shared/redis"
	"github.com/eaglebank/ledger/shared/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New("api-gateway", cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis backs the rate limiter only
	redis, err := redisClient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	limiter := redisClient.NewWindowCounter(redis.Client, "ratelimit:")
	auth := middleware.AuthMiddleware(token.NewManager(cfg.JWT.Secret, cfg.JWT.TTL))
	p := proxy.New(cfg.ProxyTimeout)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSAllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-gateway"})
	})

	v1 := router.Group("/v1", middleware.RateLimitMiddleware(limiter, cfg.RateLimitRequests, cfg.RateLimitWindow))

	// Auth routes (no authentication required)
	v1.POST("/auth/login", p.To(cfg.AuthServiceURL))
	v1.POST("/auth/refresh", p.To(cfg.AuthServiceURL))

	// Signup is public; the admin listing carries its own basic credentials.
	v1.POST("/users", p.To(cfg.UserServiceURL))
	v1.GET("/users", p.To(cfg.UserServiceURL))
	v1.GET("/users/:userId", p.To(cfg.UserServiceURL))

	// Everything below acts on the caller's own data
	protected := v1.Group("", auth)
	{
		protected.GET("/account", p.To(cfg.UserServiceURL))
		protected.DELETE("/account", p.To(cfg.UserServiceURL))
		protected.PATCH("/account/profile", p.To(cfg.UserServiceURL))
		protected.PATCH("/account/password", p.To(cfg.UserServiceURL))

		protected.GET("/account/balance", p.To(cfg.TransactionServiceURL))
		protected.POST("/transactions", p.To(cfg.TransactionServiceURL))
		protected.GET("/transactions", p.To(cfg.TransactionServiceURL))
		protected.GET("/transactions/:transactionId", p.To(cfg.TransactionServiceURL))
		protected.PATCH("/transactions/:transactionId", p.To(cfg.TransactionServiceURL))
		protected.DELETE("/transactions/:transactionId", p.To(cfg.TransactionServiceURL))
	}

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

	slog.Info("api gateway starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
