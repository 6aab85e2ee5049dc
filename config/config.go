package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all SDK configuration.
type Config struct {
	Terminal TerminalConfig
	Logging  LogConfig
}

// TerminalConfig holds terminal subsystem configuration.
type TerminalConfig struct {
	// OutputByteLimit is the default retained-output budget per terminal.
	OutputByteLimit int `envconfig:"TERMINAL_OUTPUT_BYTE_LIMIT" default:"65536"`
	// WaitTimeout is the default timeout applied to wait_for_exit calls
	// that do not specify one.
	WaitTimeout time.Duration `envconfig:"TERMINAL_WAIT_TIMEOUT" default:"30s"`
	// IdleThreshold is how long a terminal must produce no output before
	// the idle monitor flags it as possibly complete.
	IdleThreshold time.Duration `envconfig:"TERMINAL_IDLE_THRESHOLD" default:"5s"`
	// IdleCheckInterval is how often the idle monitor samples. Zero means
	// half the threshold.
	IdleCheckInterval time.Duration `envconfig:"TERMINAL_IDLE_CHECK_INTERVAL" default:"0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Terminal: TerminalConfig{
			OutputByteLimit: 65536,
			WaitTimeout:     30 * time.Second,
			IdleThreshold:   5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
