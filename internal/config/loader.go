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
//  1. defaults (New())
//  2. file (YAML) if ADAPT_CONFIG is set
//  3. env (prefix ADAPT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ADAPT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ADAPT_ADDR, ADAPT_QUEUE_SIZE, ...
	// Map env keys like ADAPT_QUEUE_SIZE -> queue_size (flat keys).
	envProvider := env.Provider("ADAPT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "adapt_")
		return s
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
	switch cfg.CatalogBackend {
	case CatalogMemory:
	case CatalogPostgres:
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn required for the postgres catalog", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown catalog_backend %q", ErrInvalidConfig, cfg.CatalogBackend)
	}
	switch cfg.SessionBackend {
	case SessionsMemory:
	case SessionsRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr required for the redis session store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown session_backend %q", ErrInvalidConfig, cfg.SessionBackend)
	}
	if cfg.DefaultMaxItems < 1 {
		return fmt.Errorf("%w: default_max_items must be at least 1", ErrInvalidConfig)
	}
	if cfg.MaxRankK < 1 {
		return fmt.Errorf("%w: max_rank_k must be at least 1", ErrInvalidConfig)
	}
	return nil
}
