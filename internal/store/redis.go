package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	searchKeyPrefix     = "listing:search:"
	searchGenerationKey = "listing:search:gen"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// SearchCache caches listing search results. Keys embed a generation
// counter; bumping it on any listing write makes every cached page stale at
// once, and stale entries age out through their TTL.
type SearchCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSearchCache(rdb *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{rdb: rdb, ttl: ttl}
}

func (c *SearchCache) key(ctx context.Context, canonical string) (string, error) {
	gen, err := c.rdb.Get(ctx, searchGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", fmt.Errorf("redis get generation: %w", err)
	}
	sum := sha256.Sum256([]byte(canonical))
	return searchKeyPrefix + gen + ":" + hex.EncodeToString(sum[:]), nil
}

// Get resolves canonical against the current generation, decodes a cached
// value into dest and reports a hit. The returned slot is where a fresh
// result for this lookup belongs; it stays pinned to the generation read
// here, so a write that lands after an Invalidate is never served.
func (c *SearchCache) Get(ctx context.Context, canonical string, dest interface{}) (string, bool, error) {
	slot, err := c.key(ctx, canonical)
	if err != nil {
		return "", false, err
	}
	data, err := c.rdb.Get(ctx, slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return slot, false, nil
	}
	if err != nil {
		return slot, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return slot, false, fmt.Errorf("redis decode: %w", err)
	}
	return slot, true, nil
}

// Set stores value in a slot returned by Get.
func (c *SearchCache) Set(ctx context.Context, slot string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, slot, data, c.ttl).Err()
}

// Invalidate makes every cached search stale.
func (c *SearchCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, searchGenerationKey).Err()
}
