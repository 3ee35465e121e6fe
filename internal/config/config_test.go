package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("RemarketingScanInterval converts seconds to duration", func(t *testing.T) {
		cfg := &Config{RemarketingScanSeconds: 300}
		assert.Equal(t, 300*time.Second, cfg.RemarketingScanInterval())
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects non-bcrypt service token hash", func(t *testing.T) {
		cfg := &Config{ServiceTokenHash: "plaintext-token", HistoryWindow: 10}
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("accepts bcrypt service token hash", func(t *testing.T) {
		cfg := &Config{ServiceTokenHash: "$2a$10$abcdefghijklmnopqrstuv", HistoryWindow: 10}
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects zero history window", func(t *testing.T) {
		cfg := &Config{HistoryWindow: 0}
		assert.Error(t, cfg.Validate(false))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":            os.Getenv("PORT"),
		"DATABASE_URL":    os.Getenv("DATABASE_URL"),
		"REDIS_URL":       os.Getenv("REDIS_URL"),
		"META_APP_SECRET": os.Getenv("META_APP_SECRET"),
		"HISTORY_WINDOW":  os.Getenv("HISTORY_WINDOW"),
		"CATALOG_LIMIT":   os.Getenv("CATALOG_LIMIT"),
		"LOG_LEVEL":       os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("PORT")
		os.Unsetenv("HISTORY_WINDOW")
		os.Unsetenv("CATALOG_LIMIT")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, 10, cfg.HistoryWindow)
		assert.Equal(t, 40, cfg.CatalogLimit)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("PORT", "3000")
		os.Setenv("HISTORY_WINDOW", "20")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 20, cfg.HistoryWindow)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required REDIS_URL", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Unsetenv("REDIS_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
