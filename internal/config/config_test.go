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

	t.Run("AuthRequestTTL converts seconds to duration", func(t *testing.T) {
		cfg := &Config{AuthRequestTTLSeconds: 300}
		assert.Equal(t, 5*time.Minute, cfg.AuthRequestTTL())
	})

	t.Run("DeviceStaleAfter converts hours to duration", func(t *testing.T) {
		cfg := &Config{DeviceStaleAfterHours: 72}
		assert.Equal(t, 72*time.Hour, cfg.DeviceStaleAfter())
	})

	t.Run("DeviceStaleAfter is zero when takeover disabled", func(t *testing.T) {
		cfg := &Config{DeviceStaleAfterHours: 0}
		assert.Equal(t, time.Duration(0), cfg.DeviceStaleAfter())
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AuthRequestTTLSeconds: 300,
			SweepBatchSize:        500,
			AdminAPIKey:           "0123456789abcdef0123456789abcdef",
			RedisURL:              "rediss://localhost:6379",
		}
	}

	t.Run("accepts sane config", func(t *testing.T) {
		assert.NoError(t, valid().Validate(true))
	})

	t.Run("rejects non-positive auth request TTL", func(t *testing.T) {
		cfg := valid()
		cfg.AuthRequestTTLSeconds = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects non-positive sweep batch size", func(t *testing.T) {
		cfg := valid()
		cfg.SweepBatchSize = -1
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects short admin API key in production", func(t *testing.T) {
		cfg := valid()
		cfg.AdminAPIKey = "short"
		assert.Error(t, cfg.Validate(true))
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects known weak admin API key in production", func(t *testing.T) {
		cfg := valid()
		cfg.AdminAPIKey = "password"
		assert.Error(t, cfg.Validate(true))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                     os.Getenv("PORT"),
		"DATABASE_URL":             os.Getenv("DATABASE_URL"),
		"REDIS_URL":                os.Getenv("REDIS_URL"),
		"ADMIN_API_KEY":            os.Getenv("ADMIN_API_KEY"),
		"TELEGRAM_BOT_TOKEN":       os.Getenv("TELEGRAM_BOT_TOKEN"),
		"AUTH_REQUEST_TTL_SECONDS": os.Getenv("AUTH_REQUEST_TTL_SECONDS"),
		"DEVICE_STALE_AFTER_HOURS": os.Getenv("DEVICE_STALE_AFTER_HOURS"),
		"LOG_LEVEL":                os.Getenv("LOG_LEVEL"),
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
		os.Setenv("ADMIN_API_KEY", "test-api-key")
		os.Unsetenv("PORT")
		os.Unsetenv("AUTH_REQUEST_TTL_SECONDS")
		os.Unsetenv("DEVICE_STALE_AFTER_HOURS")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, 300, cfg.AuthRequestTTLSeconds)
		assert.Equal(t, 0, cfg.DeviceStaleAfterHours)
		assert.Equal(t, 500, cfg.SweepBatchSize)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("ADMIN_API_KEY", "test-api-key")
		os.Setenv("PORT", "3000")
		os.Setenv("AUTH_REQUEST_TTL_SECONDS", "600")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 600, cfg.AuthRequestTTLSeconds)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("ADMIN_API_KEY", "test-api-key")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required ADMIN_API_KEY", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("ADMIN_API_KEY")

		_, err := Load()
		assert.Error(t, err)
	})
}
