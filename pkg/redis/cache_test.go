package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableCache(t *testing.T) *RedisCache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client)
}

func TestNewRedisCache_RequiresHost(t *testing.T) {
	_, err := NewRedisCache(nil)
	assert.EqualError(t, err, "redis: host is required")

	_, err = NewRedisCache(&Config{Port: "6379"})
	assert.EqualError(t, err, "redis: host is required")
}

func TestNewRedisCache_FailsWhenUnreachable(t *testing.T) {
	_, err := NewRedisCache(&Config{Host: "127.0.0.1", Port: "1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: ping 127.0.0.1:1")
}

func TestRedisCache_WrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	cache := unreachableCache(t)

	_, err := cache.Get(ctx, "waitlist:entry:1")
	assert.ErrorContains(t, err, `redis: get "waitlist:entry:1"`)

	assert.ErrorContains(t, cache.Set(ctx, "k", "v", time.Minute), `redis: set "k"`)
	assert.ErrorContains(t, cache.Delete(ctx, "k"), `redis: delete "k"`)

	stored, err := cache.SetNX(ctx, "k", "v", time.Minute)
	assert.False(t, stored)
	assert.ErrorContains(t, err, `redis: setnx "k"`)
	assert.Error(t, cache.Ping(ctx))
	assert.NotNil(t, cache.GetClient())
}
