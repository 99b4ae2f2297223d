package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TATAMI_CONFIG is set
//  3. env (prefix TATAMI_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("TATAMI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: TATAMI_ADDR, TATAMI_K_FACTOR, ...
	// Map env keys like TATAMI_K_FACTOR -> k_factor (flat keys, underscores
	// preserved to match koanf tags on the struct).
	envProvider := env.Provider("TATAMI_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "tatami_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.KFactor <= 0 {
		return fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	}
	if cfg.MaxLadderLimit < 1 {
		return fmt.Errorf("%w: max_ladder_limit must be at least 1", ErrInvalidConfig)
	}
	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres storage requires postgres_dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, cfg.Storage)
	}
	return nil
}
