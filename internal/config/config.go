package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	APIBaseURL       string        `env:"FOUNDRY_API_URL"            envDefault:"https://your-app.replit.app"`
	RequestTimeout   time.Duration `env:"FOUNDRY_REQUEST_TIMEOUT"    envDefault:"15s"`
	RateLimit        float64       `env:"FOUNDRY_RATE_LIMIT"         envDefault:"0"`
	RateBurst        int           `env:"FOUNDRY_RATE_BURST"         envDefault:"4"`
	SessionBackend   string        `env:"FOUNDRY_SESSION_BACKEND"    envDefault:"sqlite"`
	SQLitePath       string        `env:"FOUNDRY_SQLITE_PATH"        envDefault:"foundry.db"`
	DatabaseURL      string        `env:"FOUNDRY_DATABASE_URL"`
	DeviceID         string        `env:"FOUNDRY_DEVICE_ID"`
	SessionKey       string        `env:"FOUNDRY_SESSION_KEY"`
	RevalidateOnRead bool          `env:"FOUNDRY_REVALIDATE_ON_READ" envDefault:"false"`
	LogLevel         string        `env:"FOUNDRY_LOG_LEVEL"          envDefault:"info"`
	MockListenAddr   string        `env:"FOUNDRY_MOCK_ADDR"          envDefault:":18080"`
	MockJWTSecret    string        `env:"FOUNDRY_MOCK_JWT_SECRET"    envDefault:"change-this-secret"`
	MockSessionTTL   time.Duration `env:"FOUNDRY_MOCK_SESSION_TTL"   envDefault:"24h"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.SessionBackend {
	case "sqlite", "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
	if cfg.SessionBackend == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("FOUNDRY_DATABASE_URL is required for the postgres session backend")
	}
	if _, err := cfg.SessionKeyBytes(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SessionKeyBytes decodes FOUNDRY_SESSION_KEY. It returns nil when no key is configured.
func (c Config) SessionKeyBytes() ([]byte, error) {
	raw := strings.TrimSpace(c.SessionKey)
	if raw == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("FOUNDRY_SESSION_KEY is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("FOUNDRY_SESSION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
