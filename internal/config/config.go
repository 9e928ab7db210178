// Package config provides the store configuration: backend selection,
// backend-specific settings and the shared tree constraints. It is
// loaded once at process startup and handed to collaborators through
// the container; there is no global mutable configuration state.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	appErrors "talentgraph-backend/pkg/errors"
)

// BackendKind selects the concrete storage backend.
type BackendKind string

const (
	BackendFilesystem BackendKind = "filesystem"
	BackendRedis      BackendKind = "redis"
)

// Config holds all configuration values consumed by the store.
type Config struct {
	Environment string      `yaml:"environment" validate:"omitempty,oneof=development staging production"`
	Backend     BackendKind `yaml:"backend" validate:"required,oneof=filesystem redis"`

	Filesystem Filesystem `yaml:"filesystem"`
	Redis      Redis      `yaml:"redis"`
	Memory     Memory     `yaml:"memory"`
	Logging    Logging    `yaml:"logging"`
}

// Filesystem configures the filesystem backend.
type Filesystem struct {
	// Root is the directory holding one document per candidate.
	Root string `yaml:"root"`
}

// Redis configures the Redis backend.
type Redis struct {
	// URL is the connection string (redis://host:port/db).
	URL string `yaml:"url"`
	// Namespace prefixes every key.
	Namespace string `yaml:"namespace"`
	// TTLSeconds is the retention window for a candidate's document.
	TTLSeconds int `yaml:"ttl_seconds" validate:"min=0"`
	// MaxRetries caps the optimistic-lock retry loop.
	MaxRetries int `yaml:"max_retries" validate:"min=1"`
	// RetryBaseDelayMs is the first backoff step in milliseconds.
	RetryBaseDelayMs int `yaml:"retry_base_delay_ms" validate:"min=1"`
}

// Memory holds tree constraints shared by all backends.
type Memory struct {
	// MaxDepth bounds the level of any node in any tree.
	MaxDepth int `yaml:"max_depth" validate:"min=1"`
}

// Logging configures the zap logger.
type Logging struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Environment: "development",
		Backend:     BackendFilesystem,
		Filesystem: Filesystem{
			Root: "data/candidate-memory",
		},
		Redis: Redis{
			Namespace:        "talentgraph",
			TTLSeconds:       int((30 * 24 * time.Hour).Seconds()),
			MaxRetries:       5,
			RetryBaseDelayMs: 50,
		},
		Memory: Memory{
			MaxDepth: 10,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// and environment variables, in increasing priority, then validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error. Use only in main().
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// applyEnvironment overlays environment variables, the highest-priority
// source.
func (c *Config) applyEnvironment() {
	if val := os.Getenv("APP_ENV"); val != "" {
		c.Environment = val
	}
	if val := os.Getenv("STORAGE_BACKEND"); val != "" {
		c.Backend = BackendKind(val)
	}
	if val := os.Getenv("STORAGE_ROOT"); val != "" {
		c.Filesystem.Root = val
	}
	if val := os.Getenv("REDIS_URL"); val != "" {
		c.Redis.URL = val
	}
	if val := os.Getenv("REDIS_NAMESPACE"); val != "" {
		c.Redis.Namespace = val
	}
	if val := os.Getenv("MEMORY_TTL_SECONDS"); val != "" {
		if ttl, err := strconv.Atoi(val); err == nil && ttl >= 0 {
			c.Redis.TTLSeconds = ttl
		}
	}
	if val := os.Getenv("MAX_TREE_DEPTH"); val != "" {
		if depth, err := strconv.Atoi(val); err == nil && depth > 0 {
			c.Memory.MaxDepth = depth
		}
	}
	if val := os.Getenv("CAS_MAX_RETRIES"); val != "" {
		if retries, err := strconv.Atoi(val); err == nil && retries > 0 {
			c.Redis.MaxRetries = retries
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

// Validate checks struct constraints plus the cross-field rules the
// tags cannot express. Selecting the Redis backend without a connection
// string is a startup configuration error, never a deferred one.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return appErrors.NewConfiguration(fmt.Sprintf("invalid configuration: %v", err))
	}
	switch c.Backend {
	case BackendFilesystem:
		if c.Filesystem.Root == "" {
			return appErrors.NewConfiguration("filesystem backend selected but no storage root configured")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return appErrors.NewConfiguration("redis backend selected but no connection string configured")
		}
	}
	return nil
}

// TTL returns the Redis retention window as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// RetryBaseDelay returns the first CAS backoff step as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Redis.RetryBaseDelayMs) * time.Millisecond
}
