package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	RedisURL      string `env:"REDIS_URL,required"`
	MetaAppSecret string `env:"META_APP_SECRET"`
	// TelegramSecretToken is the pre-shared secret registered with
	// setWebhook; Telegram echoes it on every delivery.
	TelegramSecretToken string `env:"TELEGRAM_SECRET_TOKEN"`
	// ServiceTokenHash is the bcrypt hash of the dashboard API token.
	ServiceTokenHash       string `env:"SERVICE_TOKEN_HASH"`
	EncryptionKey          string `env:"ENCRYPTION_KEY"`
	HistoryWindow          int    `env:"HISTORY_WINDOW" envDefault:"10"`
	CatalogLimit           int    `env:"CATALOG_LIMIT" envDefault:"40"`
	RemarketingScanSeconds int    `env:"REMARKETING_SCAN_SECONDS" envDefault:"300"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) RemarketingScanInterval() time.Duration {
	return time.Duration(c.RemarketingScanSeconds) * time.Second
}

func (c *Config) Validate(isProduction bool) error {
	if c.ServiceTokenHash != "" {
		if !strings.HasPrefix(c.ServiceTokenHash, "$2a$") &&
			!strings.HasPrefix(c.ServiceTokenHash, "$2b$") &&
			!strings.HasPrefix(c.ServiceTokenHash, "$2y$") {
			return fmt.Errorf("SERVICE_TOKEN_HASH must be a bcrypt hash (generate with: go run scripts/hash-token.go <token>)")
		}
	}

	if c.HistoryWindow < 1 {
		return fmt.Errorf("HISTORY_WINDOW must be at least 1")
	}

	if isProduction {
		if c.MetaAppSecret == "" {
			log.Warn().Msg("META_APP_SECRET is empty in production: webhook signature verification disabled")
		}
		if c.ServiceTokenHash == "" {
			log.Warn().Msg("SERVICE_TOKEN_HASH is empty in production: dashboard API authentication disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: merchant credentials will not be encrypted at rest")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
