// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob. All values come from USERGATE_* env vars.
type Config struct {
	HTTPAddr        string        `env:"USERGATE_HTTP_ADDR"        envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"USERGATE_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DatabaseURL   string `env:"USERGATE_DATABASE_URL"`
	MigrationsDir string `env:"USERGATE_MIGRATIONS_DIR" envDefault:"ops/migrations/sql"`
	SeedsDir      string `env:"USERGATE_SEEDS_DIR"      envDefault:"ops/migrations/seed"`

	AWSRegion         string `env:"USERGATE_AWS_REGION"`
	CognitoUserPoolID string `env:"USERGATE_COGNITO_USER_POOL_ID"`
	CognitoClientID   string `env:"USERGATE_COGNITO_CLIENT_ID"`
	DefaultGroup      string `env:"USERGATE_DEFAULT_GROUP" envDefault:"USER"`

	// OIDCIssuer is the token issuer used for bearer verification. When
	// empty, DevJWTSecret must be set and tokens are verified with HS256.
	OIDCIssuer   string `env:"USERGATE_OIDC_ISSUER"`
	DevJWTSecret string `env:"USERGATE_DEV_JWT_SECRET"`

	RateLimitRPS   float64 `env:"USERGATE_RATE_LIMIT_RPS"   envDefault:"50"`
	RateLimitBurst int     `env:"USERGATE_RATE_LIMIT_BURST" envDefault:"100"`
	MaxBodyBytes   int64   `env:"USERGATE_MAX_BODY_BYTES"   envDefault:"1048576"`
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.OIDCIssuer == "" && c.DevJWTSecret == "" {
		return errors.New("config: one of USERGATE_OIDC_ISSUER or USERGATE_DEV_JWT_SECRET is required")
	}
	if c.CognitoUserPoolID != "" && c.AWSRegion == "" {
		return errors.New("config: USERGATE_AWS_REGION is required with a user pool id")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("config: rate limit values must be positive")
	}
	return nil
}

// UseCognito reports whether a real identity provider is configured.
func (c Config) UseCognito() bool {
	return c.CognitoUserPoolID != "" && c.CognitoClientID != ""
}
