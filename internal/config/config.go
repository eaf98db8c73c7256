// Package config loads tlcache settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the command line tool settings.
type Config struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	Model         string `env:"TLCACHE_MODEL"    envDefault:"gpt-4o-mini"`

	// RequestsPerMinute paces backend calls, retries included. Zero disables pacing.
	RequestsPerMinute int `env:"TLCACHE_REQUESTS_PER_MINUTE" envDefault:"0"`

	// Storage: Redis when RedisURL is set, else a directory when Dir is set,
	// else process memory.
	RedisURL       string `env:"TLCACHE_REDIS_URL"`
	RedisKeyPrefix string `env:"TLCACHE_REDIS_PREFIX" envDefault:"tlcache:"`
	Dir            string `env:"TLCACHE_DIR"`

	RootKey    string        `env:"TLCACHE_ROOT_KEY"    envDefault:"astrobin_translations"`
	QuotaBytes int64         `env:"TLCACHE_QUOTA_BYTES" envDefault:"5242880"`
	TTL        time.Duration `env:"TLCACHE_TTL"         envDefault:"720h"`

	// Stateless disables the cache, as when rendering on a server.
	Stateless bool `env:"TLCACHE_STATELESS" envDefault:"false"`

	LogLevel string `env:"TLCACHE_LOG_LEVEL" envDefault:"warn"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	var errs []error
	if c.QuotaBytes < 0 {
		errs = append(errs, fmt.Errorf("TLCACHE_QUOTA_BYTES must not be negative, got %d", c.QuotaBytes))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("TLCACHE_REQUESTS_PER_MINUTE must not be negative, got %d", c.RequestsPerMinute))
	}
	if c.RootKey == "" {
		errs = append(errs, errors.New("TLCACHE_ROOT_KEY must not be empty"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("TLCACHE_LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the configured log level, warn when unparseable.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return level
}
