package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/debt-service/internal/infrastructure/cache"
)

func unreachableCache() *cache.RedisSimulationCache {
	return cache.NewRedisSimulationCacheFromClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
}

func TestRedisSimulationCache_UnreachableServer(t *testing.T) {
	c := unreachableCache()
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	val, ok, err := c.Get(ctx, "loan-1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)

	assert.Error(t, c.Set(ctx, "loan-1", []byte("{}"), time.Minute))
	assert.Error(t, c.Ping(ctx))
}
