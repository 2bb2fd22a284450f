package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("POSTER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POSTER_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisReferenceCache(t *testing.T) {
	client := newTestRedis(t)
	c := NewRedisReferenceCache(client, "posterdash:test:"+uuid.NewString()+":", time.Minute)
	defer c.Close()

	ctx := context.Background()
	accountID := uuid.New()
	cats := []pos.Category{{ID: 16, Name: "Зарплата"}, {ID: 19, Name: "Кухня"}}

	var got []pos.Category
	ok, err := c.Get(ctx, accountID, pos.ReferenceCategories, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, accountID, pos.ReferenceCategories, cats))
	ok, err = c.Get(ctx, accountID, pos.ReferenceCategories, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, cats, got)

	ttl, err := client.TTL(ctx, c.key(accountID, pos.ReferenceCategories)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx, accountID))
	ok, err = c.Get(ctx, accountID, pos.ReferenceCategories, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
