// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Layer defaults, optional YAML file, and env vars via Load.
// - External errors are wrapped via this package's sentinels.
package config

import (
	"context"
)

// Storage backend names.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// KFactor is the Elo sensitivity constant applied engine-wide.
	KFactor float64 `koanf:"k_factor"`

	// MaxLadderLimit caps GET /ladder?limit.
	MaxLadderLimit int `koanf:"max_ladder_limit"`

	// DedupeSize bounds the duplicate-match cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Storage selects the backend: "memory" or "postgres".
	Storage string `koanf:"storage"`

	// PostgresDSN is the connection string when Storage is "postgres".
	PostgresDSN string `koanf:"postgres_dsn"`
}

// New creates a Config with defaults. The context parameter keeps the
// project-wide convention; it is reserved for future loaders.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		KFactor:        32,
		MaxLadderLimit: 100,
		DedupeSize:     50_000,
		Storage:        StorageMemory,
	}
}
