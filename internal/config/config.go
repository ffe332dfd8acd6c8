// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds all process-wide settings. Values are read once at startup
// and treated as read-only afterwards.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR,default=:8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret             string `env:"JWT_SECRET"`
	AccessTokenTTLSeconds int    `env:"JWT_ACCESS_TOKEN_EXPIRE_SECONDS,default=900"`
	RefreshTokenTTLDays   int    `env:"JWT_REFRESH_TOKEN_EXPIRE_DAYS,default=2"`

	RateLimitPerSecond int    `env:"RATE_LIMIT_PER_SECOND,default=50"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST,default=100"`
	CORSOrigins        string `env:"CORS_ALLOWED_ORIGINS,default="`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
	MigrationsPath     string `env:"MIGRATIONS_PATH,default=migrations"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &cfg, nil
}

// AccessTokenTTL returns the access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSeconds) * time.Second
}

// RefreshTokenTTL returns the refresh token lifetime.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}
