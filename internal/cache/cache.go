// Package cache is the TTL cache that sits in front of the market data
// provider. Values are opaque bytes; GetJSON and SetJSON handle encoding.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// LastRefresh is the time of the most recent Set, zero if none.
	LastRefresh() time.Time
	Clear(ctx context.Context) error
}

// GetJSON decodes a cached value into dst. A decode failure counts as a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
