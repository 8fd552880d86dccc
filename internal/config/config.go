// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendValkey   = "valkey"
)

type Config struct {
	// Server
	Port            string        `env:"PORT" envDefault:"3001"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"` // debug, info, warn, error, silent
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Storage
	StoreBackend   string   `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	ValkeyAddrs    []string `env:"VALKEY_ADDRS" envDefault:"127.0.0.1:6379" envSeparator:","`
	ValkeyPassword string   `env:"VALKEY_PASSWORD"`
	ValkeyDB       int      `env:"VALKEY_DB" envDefault:"0"`

	// WebSocket
	WSMaxMessageSize int64   `env:"WS_MAX_MESSAGE_SIZE" envDefault:"52428800"`
	WSSendBuffer     int     `env:"WS_SEND_BUFFER" envDefault:"256"`
	WSMessageRate    float64 `env:"WS_MESSAGE_RATE" envDefault:"100"`
	WSMessageBurst   int     `env:"WS_MESSAGE_BURST" envDefault:"200"`

	// Rate Limiting
	APIRate  float64 `env:"API_RATE" envDefault:"10"`
	APIBurst int     `env:"API_BURST" envDefault:"20"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendValkey:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StoreBackend == BackendValkey && len(c.ValkeyAddrs) == 0 {
		return errors.New("VALKEY_ADDRS is required for the valkey backend")
	}
	if c.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", c.WSSendBuffer)
	}
	if c.WSMaxMessageSize <= 0 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be positive, got %d", c.WSMaxMessageSize)
	}
	// A non-positive WS_MESSAGE_RATE disables the per-connection limit.
	if c.WSMessageRate > 0 && c.WSMessageBurst <= 0 {
		return fmt.Errorf("WS_MESSAGE_BURST must be positive when WS_MESSAGE_RATE is set, got %d", c.WSMessageBurst)
	}
	if c.APIRate <= 0 || c.APIBurst <= 0 {
		return fmt.Errorf("API_RATE and API_BURST must be positive, got %v and %d", c.APIRate, c.APIBurst)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
