package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Backend kinds accepted by OpenBackend.
const (
	KindFile     = "file"
	KindBadger   = "badger"
	KindRedis    = "redis"
	KindPostgres = "postgres"
)

// BackendConfig selects and configures a backend.
type BackendConfig struct {
	Kind        string
	BaseDir     string // file and badger backends live here
	RedisURL    string
	Namespace   string
	PostgresDSN string
	Logger      *slog.Logger
}

// OpenBackend constructs the backend named by cfg.Kind.
func OpenBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch cfg.Kind {
	case KindFile, "":
		return NewFileBackend(filepath.Join(cfg.BaseDir, FileName)), nil

	case KindBadger:
		return OpenBadger(BadgerConfig{
			Path:       filepath.Join(cfg.BaseDir, BadgerDirName),
			SyncWrites: true,
			Logger:     cfg.Logger,
		})

	case KindRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis_url: %w", err)
		}
		b, err := NewRedisBackend(opts, cfg.Namespace)
		if err != nil {
			return nil, err
		}
		if err := b.Ping(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
		}
		return b, nil

	case KindPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires store.postgres_dsn")
		}
		return OpenPostgres(ctx, cfg.PostgresDSN)
	}

	return nil, fmt.Errorf("unknown store backend: %s (must be 'file', 'badger', 'redis' or 'postgres')", cfg.Kind)
}
