package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// KeyPrefix namespaces every key this application writes to Redis.
const KeyPrefix = "premium_sentinel:"

// Redis stores entries in a shared Redis instance so several processes
// can reuse one refresh.
type Redis struct {
	client *redis.Client

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &Redis{client: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, KeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	r.mu.Lock()
	r.lastRefresh = time.Now()
	r.mu.Unlock()
	return nil
}

func (r *Redis) LastRefresh() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRefresh
}

// Clear removes every key under KeyPrefix.
func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, KeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("redis keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
