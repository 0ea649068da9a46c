// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"
)

// Backend selectors for pluggable adapters.
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"

	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogBackend selects the question bank source: memory or postgres.
	CatalogBackend string `koanf:"catalog_backend"`

	// PostgresDSN is the connection string for the question bank and the
	// answer journal when the postgres backend is selected.
	PostgresDSN string `koanf:"postgres_dsn"`

	// SessionBackend selects the session store: memory or redis.
	SessionBackend string `koanf:"session_backend"`

	// RedisAddr is the Redis host:port for the redis session backend.
	RedisAddr string `koanf:"redis_addr"`

	// SessionTTLMinutes bounds how long an abandoned session stays readable.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// DefaultMaxItems is the per-session item cap when a start request
	// does not specify one.
	DefaultMaxItems int `koanf:"default_max_items"`

	// MaxRankK caps how many items a single rank request may ask for.
	MaxRankK int `koanf:"max_rank_k"`

	// ModelArtifactPath points at the trained difficulty model JSON.
	ModelArtifactPath string `koanf:"model_artifact_path"`

	// QueueSize bounds the in-memory answer journal queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of journal workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the answer deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		CatalogBackend:    CatalogMemory,
		SessionBackend:    SessionsMemory,
		RedisAddr:         "localhost:6379",
		SessionTTLMinutes: 120,
		DefaultMaxItems:   10,
		MaxRankK:          100,
		ModelArtifactPath: "model.json",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
	}
}
