package cachestore

import (
	"context"
	"fmt"

	"nfl-scoreboard-service/internal/config"
)

// New builds the Storage selected by cfg.Backend. keyPrefix namespaces shared backends.
func New(ctx context.Context, cfg config.CacheConfig, keyPrefix string) (Storage, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStorage(), nil
	case config.BackendFS, "":
		return NewFSStorage(cfg.Dir)
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.BackendRedis:
		return NewRedisStorage(ctx, cfg.RedisAddr, cfg.RedisDB, keyPrefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
