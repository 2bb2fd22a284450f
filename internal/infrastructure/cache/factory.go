package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReferenceCache is a pos.ReferenceCache that owns resources
type ReferenceCache interface {
	pos.ReferenceCache
	io.Closer
}

// NewReferenceCache builds the cache selected by cfg.Backend. The Redis
// backend pings the server first and fails fast when it is unreachable.
func NewReferenceCache(cfg config.CacheConfig, redisCfg config.RedisConfig, logger *zap.Logger) (ReferenceCache, error) {
	switch cfg.Backend {
	case "", "memory":
		logger.Info("using in-memory POS reference cache", zap.Duration("ttl", cfg.TTL))
		return NewMemoryReferenceCache(cfg.TTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisCfg.Addr(), err)
		}

		logger.Info("using Redis POS reference cache",
			zap.String("addr", redisCfg.Addr()),
			zap.Duration("ttl", cfg.TTL),
		)
		return NewRedisReferenceCache(client, cfg.KeyPrefix, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
