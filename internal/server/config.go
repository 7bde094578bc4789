// Package server provides the environment-driven configuration for the
// Beacon service, including transport timeouts and the origin policy.
package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration. All values come from the
// environment; defaults match the reference deployment.
type Config struct {
	Port            string        `envconfig:"PORT" default:"3000"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
	MaxMessageSize  int64         `envconfig:"MAX_MESSAGE_SIZE" default:"1048576" validate:"gt=0"`
	SendBufferSize  int           `envconfig:"SEND_BUFFER_SIZE" default:"256" validate:"gt=0"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s" validate:"gt=0"`
	PongTimeout     time.Duration `envconfig:"PONG_TIMEOUT" default:"60s" validate:"gt=0"`
	PingInterval    time.Duration `envconfig:"PING_INTERVAL" default:"54s" validate:"gt=0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogMode         string        `envconfig:"LOG_MODE" default:"production" validate:"oneof=production development"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	if cfg.PingInterval >= cfg.PongTimeout {
		return Config{}, fmt.Errorf("PING_INTERVAL (%s) must be shorter than PONG_TIMEOUT (%s)",
			cfg.PingInterval, cfg.PongTimeout)
	}

	if strings.ContainsRune(strings.TrimPrefix(cfg.Port, ":"), ' ') {
		return Config{}, fmt.Errorf("invalid PORT value: %q", cfg.Port)
	}

	return cfg, nil
}

// DefaultConfig returns the configuration the service ships with, unmodified
// by the environment. Tests build on it.
func DefaultConfig() Config {
	return Config{
		Port:            "3000",
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  1 << 20,
		SendBufferSize:  256,
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		PingInterval:    54 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		LogMode:         "production",
	}
}

// Addr normalizes the configured port into a listen address. Both "3000" and
// ":3000" (or "127.0.0.1:3000") forms are accepted.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
