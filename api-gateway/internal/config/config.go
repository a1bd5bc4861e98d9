package config

import (
	"fmt"
	"strings"
	"time"

	shared "github.com/eaglebank/ledger/shared/config"
)

type Config struct {
	Port string `env:"PORT" env-default:"8080"`

	AuthServiceURL        string        `env:"AUTH_SERVICE_URL" env-default:"http://localhost:8081"`
	UserServiceURL        string        `env:"USER_SERVICE_URL" env-default:"http://localhost:8082"`
	TransactionServiceURL string        `env:"TRANSACTION_SERVICE_URL" env-default:"http://localhost:8084"`
	ProxyTimeout          time.Duration `env:"PROXY_TIMEOUT" env-default:"15s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`

	RateLimitRequests int64         `env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"10m"`

	Redis shared.Redis
	JWT   shared.JWT
	Log   shared.Log
}

func Load() (*Config, error) {
	var cfg Config
	if err := shared.Load(&cfg); err != nil {
		return nil, err
	}
	cfg.AuthServiceURL = strings.TrimSuffix(cfg.AuthServiceURL, "/")
	cfg.UserServiceURL = strings.TrimSuffix(cfg.UserServiceURL, "/")
	cfg.TransactionServiceURL = strings.TrimSuffix(cfg.TransactionServiceURL, "/")
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimitWindow)
	}
	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", cfg.RateLimitRequests)
	}
	return &cfg, nil
}
