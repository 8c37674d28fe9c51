package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port             int    `env:"PORT" envDefault:"8080"`
	DatabaseURL      string `env:"DATABASE_URL,required"`
	RedisURL         string `env:"REDIS_URL,required"`
	AdminAPIKey      string `env:"ADMIN_API_KEY,required"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`

	// Auth request expiry window.
	AuthRequestTTLSeconds int `env:"AUTH_REQUEST_TTL_SECONDS" envDefault:"300"`

	// Device staleness takeover window for licenses. 0 disables automatic
	// takeover entirely: a bound license stays locked to its device until
	// an explicit logout.
	DeviceStaleAfterHours int `env:"DEVICE_STALE_AFTER_HOURS" envDefault:"0"`

	RateLimitPerMin int `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	SweepBatchSize  int `env:"SWEEP_BATCH_SIZE" envDefault:"500"`
}

func (c *Config) AuthRequestTTL() time.Duration {
	return time.Duration(c.AuthRequestTTLSeconds) * time.Second
}

func (c *Config) DeviceStaleAfter() time.Duration {
	return time.Duration(c.DeviceStaleAfterHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.AuthRequestTTLSeconds <= 0 {
		return fmt.Errorf("AUTH_REQUEST_TTL_SECONDS must be positive")
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}

	if isProduction {
		if err := validateSecret("ADMIN_API_KEY", c.AdminAPIKey); err != nil {
			return err
		}
		if c.TelegramBotToken == "" {
			log.Warn().Msg("TELEGRAM_BOT_TOKEN is empty in production: approval prompts will not be delivered")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
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
