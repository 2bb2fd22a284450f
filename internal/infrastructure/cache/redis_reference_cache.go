package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "posterdash:ref:"

// RedisReferenceCache shares POS reference lists between instances
type RedisReferenceCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisReferenceCache wraps an existing client
func NewRedisReferenceCache(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisReferenceCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisReferenceCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *RedisReferenceCache) key(posAccountID uuid.UUID, kind pos.ReferenceKind) string {
	return c.keyPrefix + posAccountID.String() + ":" + string(kind)
}

// Get implements pos.ReferenceCache
func (c *RedisReferenceCache) Get(ctx context.Context, posAccountID uuid.UUID, kind pos.ReferenceKind, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, c.key(posAccountID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", kind, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", kind, err)
	}
	return true, nil
}

// Set implements pos.ReferenceCache
func (c *RedisReferenceCache) Set(ctx context.Context, posAccountID uuid.UUID, kind pos.ReferenceKind, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := c.client.Set(ctx, c.key(posAccountID, kind), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", kind, err)
	}
	return nil
}

// Invalidate implements pos.ReferenceCache
func (c *RedisReferenceCache) Invalidate(ctx context.Context, posAccountID uuid.UUID) error {
	err := c.client.Del(ctx,
		c.key(posAccountID, pos.ReferenceAccounts),
		c.key(posAccountID, pos.ReferenceCategories),
	).Err()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *RedisReferenceCache) Close() error {
	return c.client.Close()
}

var _ pos.ReferenceCache = (*RedisReferenceCache)(nil)
