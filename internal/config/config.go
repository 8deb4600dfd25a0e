// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Bind address
	Host string `env:"SERIGEN_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERIGEN_PORT" envDefault:"8080"`

	// Secret for signing session tokens (HS256). Required; there is no
	// safe default for a signing key.
	JWTSecret string `env:"SERIGEN_JWT_SECRET,required"`

	// Token lifetime. Applies to both the JWT exp claim and the cookie
	// max-age, so a stolen cookie outlives its token by nothing.
	TokenTTL time.Duration `env:"SERIGEN_TOKEN_TTL" envDefault:"24h"`

	// Database location: a SQLite file path (created if missing) or a
	// postgres:// connection string.
	DatabasePath string `env:"DATABASE_PATH" envDefault:"serigen.db"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Addr returns the host:port pair the server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
