package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/posterdash/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RevocationList invalidates tokens before they expire, e.g. on logout
type RevocationList interface {
	// Revoke blocks the token with the given JTI for ttl
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewRevocationList shares the backend chosen for the reference cache: Redis
// when several instances run, memory otherwise
func NewRevocationList(cacheCfg config.CacheConfig, redisCfg config.RedisConfig) (RevocationList, error) {
	if cacheCfg.Backend != "redis" {
		return NewMemoryRevocationList(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         redisCfg.Addr(),
		Password:     redisCfg.Password,
		DB:           redisCfg.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for token revocation: %w", err)
	}
	return NewRedisRevocationList(client), nil
}

// RedisRevocationList implements RevocationList using Redis
type RedisRevocationList struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRevocationList creates a revocation list on an existing client
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{
		client:    client,
		keyPrefix: "posterdash:revoked:",
	}
}

// Revoke stores the JTI until the token would have expired anyway
func (r *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks whether the JTI was revoked
func (r *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (r *RedisRevocationList) Close() error {
	return r.client.Close()
}

var _ RevocationList = (*RedisRevocationList)(nil)

// MemoryRevocationList keeps revoked JTIs in process. Revocations do not
// survive a restart or reach other instances.
type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time // JTI -> expiration
	now     func() time.Time
}

// NewMemoryRevocationList creates an empty in-memory list
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke adds the JTI for ttl
func (m *MemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = m.now().Add(ttl)
	return nil
}

// IsRevoked checks the JTI and drops the entry once it has expired
func (m *MemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiration, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if m.now().After(expiration) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}

var _ RevocationList = (*MemoryRevocationList)(nil)
