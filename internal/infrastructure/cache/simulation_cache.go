package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bibbank/debt-service/internal/domain/port"
)

const keyPrefix = "debt:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// RedisSimulationCache implements port.SimulationCache on Redis.
type RedisSimulationCache struct {
	client *redis.Client
}

// NewRedisSimulationCache connects to Redis. The connection is established
// lazily by the client; use Ping to check reachability.
func NewRedisSimulationCache(opts Options) *RedisSimulationCache {
	return NewRedisSimulationCacheFromClient(redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}))
}

// NewRedisSimulationCacheFromClient wraps an existing client.
func NewRedisSimulationCacheFromClient(client *redis.Client) *RedisSimulationCache {
	return &RedisSimulationCache{client: client}
}

// Get returns the cached value. A missing key is reported as ok=false with a
// nil error.
func (c *RedisSimulationCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key for ttl.
func (c *RedisSimulationCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks that Redis answers.
func (c *RedisSimulationCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisSimulationCache) Close() error {
	return c.client.Close()
}

var _ port.SimulationCache = (*RedisSimulationCache)(nil)
