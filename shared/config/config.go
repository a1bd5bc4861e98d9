// Package config holds the configuration sections shared by every service.
// Each service declares its own Config struct embedding these sections and
// loads it from the environment with Load.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Redis struct {
	Addr         string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password     string `env:"REDIS_PASSWORD"`
	DB           int    `env:"REDIS_DB" env-default:"0"`
	PoolSize     int    `env:"REDIS_POOL_SIZE" env-default:"10"`
	StreamMaxLen int64  `env:"REDIS_STREAM_MAXLEN" env-default:"10000"`
}

type JWT struct {
	Secret string        `env:"JWT_SECRET" env-required:"true"`
	TTL    time.Duration `env:"JWT_TTL" env-default:"24h"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

type Database struct {
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	Migrate         bool          `env:"DB_MIGRATE" env-default:"true"`
}

// Load fills cfg from environment variables, applying env-default tags.
func Load(cfg any) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}
