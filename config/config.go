package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds every environment-sourced setting for the Nag process.
// A single instance is loaded once at startup and passed down explicitly —
// no process-wide singleton.
type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"SERVER_PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	AuthEnabled      bool   `env:"AUTH_ENABLED" envDefault:"true"`
	OIDCIssuerURL    string `env:"OIDC_ISSUER_URL" validate:"required_if=AuthEnabled true"`
	OIDCClientID     string `env:"OIDC_CLIENT_ID" validate:"required_if=AuthEnabled true"`
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET" validate:"required_if=AuthEnabled true"`
	OIDCRedirectURL  string `env:"OIDC_REDIRECT_URL" validate:"required_if=AuthEnabled true"`

	// InternalHMACKey is handed to the OIDC verifier as its HS256 key; the
	// verifier checks tokens against it only when no JWKS URL is configured.
	InternalHMACKey string `env:"INTERNAL_HMAC_KEY" envDefault:"dev-only-insecure-key-change-me"`

	NotificationsEnabled            bool     `env:"NOTIFICATIONS_ENABLED" envDefault:"true"`
	NotificationPollIntervalSec     int      `env:"NOTIFICATION_POLL_INTERVAL_SECONDS" envDefault:"60" validate:"min=1,max=3600"`
	NotificationDispatchIntervalSec int      `env:"NOTIFICATION_DISPATCH_INTERVAL_SECONDS" envDefault:"15" validate:"min=1,max=3600"`
	NotificationMaxAttempts         int      `env:"NOTIFICATION_MAX_ATTEMPTS" envDefault:"5" validate:"min=1,max=50"`
	NotificationBatchSize           int      `env:"NOTIFICATION_BATCH_SIZE" envDefault:"50" validate:"min=1,max=1000"`
	NotificationChannels            []string `env:"NOTIFICATION_CHANNELS" envDefault:"telegram" envSeparator:","`

	TelegramToken         string `env:"CHANNEL_TELEGRAM_TOKEN" validate:"required_if=NotificationsEnabled true"`
	TelegramRecipient     string `env:"CHANNEL_TELEGRAM_RECIPIENT" validate:"required_if=NotificationsEnabled true"`
	TelegramWebhookSecret string `env:"CHANNEL_TELEGRAM_WEBHOOK_SECRET"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
