// Package settings loads process-level runtime settings from the environment.
package settings

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vnykmshr/chunkflow/internal/logging"
	"github.com/vnykmshr/chunkflow/pkg/common/validation"
)

// Prefix is the environment variable prefix, e.g. CHUNKFLOW_LOG_LEVEL.
const Prefix = "chunkflow"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Settings holds runtime configuration that is not part of a chain.
type Settings struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`

	// MetricsAddr enables the /metrics endpoint when set, e.g. ":9090".
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	StoreBackend   string        `envconfig:"STORE_BACKEND" default:"memory"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisKeyPrefix string        `envconfig:"REDIS_KEY_PREFIX" default:"chunkflow"`
	RedisTTL       time.Duration `envconfig:"REDIS_TTL" default:"10m"`
}

// Load reads settings from CHUNKFLOW_* environment variables.
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default returns the settings used when the environment is empty.
func Default() *Settings {
	return &Settings{
		LogLevel:       "info",
		StoreBackend:   StoreMemory,
		RedisAddr:      "localhost:6379",
		RedisKeyPrefix: "chunkflow",
		RedisTTL:       10 * time.Minute,
	}
}

// Validate checks values envconfig cannot check by type.
func (s *Settings) Validate() error {
	if err := validation.ValidateOneOf("settings", "STORE_BACKEND", s.StoreBackend, StoreMemory, StoreRedis); err != nil {
		return err
	}
	if s.StoreBackend == StoreRedis {
		if err := validation.ValidateNotEmpty("settings", "REDIS_ADDR", s.RedisAddr); err != nil {
			return err
		}
	}
	return nil
}

// Logging returns the logger configuration.
func (s *Settings) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if s.LogDev {
		cfg = logging.DevelopmentConfig()
	}
	cfg.Level = s.LogLevel
	return cfg
}

// Usage prints the recognized environment variables to stderr.
func Usage() error {
	return envconfig.Usage(Prefix, &Settings{})
}
