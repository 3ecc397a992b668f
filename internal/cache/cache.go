// Package cache is a two-layer lookup cache: ristretto in-process (L1)
// backed by Redis (L2), with singleflight collapsing concurrent misses.
// The engine uses it for directory lookups only; guild policy is read
// from the store on every event and never cached here.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"

	"discord-sentinel-bot/internal/redis"
)

// Cache provides L1 -> L2 -> fetch fallback for string values.
type Cache struct {
	l1           *ristretto.Cache
	l2           *redis.Client
	singleflight singleflight.Group
	defaultTTL   time.Duration

	l1Hits   atomic.Uint64
	l1Misses atomic.Uint64
	l2Hits   atomic.Uint64
	l2Misses atomic.Uint64
}

// Config for cache initialization.
type Config struct {
	L1MaxCost     int64         // max cost in bytes for L1 (default 10MB)
	L1NumCounters int64         // keys tracked for frequency (default 100k)
	DefaultTTL    time.Duration // TTL applied on fill (default 5m)
}

// New creates the cache. The Redis client may be nil, leaving L1 only.
func New(l2 *redis.Client, cfg Config) (*Cache, error) {
	if cfg.L1MaxCost == 0 {
		cfg.L1MaxCost = 10 << 20
	}
	if cfg.L1NumCounters == 0 {
		cfg.L1NumCounters = 100000
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}

	l1, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.L1NumCounters,
		MaxCost:     cfg.L1MaxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 cache: %w", err)
	}

	return &Cache{l1: l1, l2: l2, defaultTTL: cfg.DefaultTTL}, nil
}

// Get retrieves a value with L1 -> L2 -> fetch fallback. Concurrent
// misses on the same key share one fetch.
func (c *Cache) Get(ctx context.Context, key string, fetch func(context.Context) (string, error)) (string, error) {
	if val, found := c.l1.Get(key); found {
		c.l1Hits.Add(1)
		if s, ok := val.(string); ok {
			return s, nil
		}
	}
	c.l1Misses.Add(1)

	if c.l2 != nil {
		if val, err := c.l2.Get(key); err == nil && val != "" {
			c.l2Hits.Add(1)
			c.l1.SetWithTTL(key, val, 1, c.defaultTTL)
			return val, nil
		}
		c.l2Misses.Add(1)
	}

	val, err, _ := c.singleflight.Do(key, func() (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		return "", err
	}

	s := val.(string)
	c.Set(key, s, c.defaultTTL)
	return s, nil
}

// Set stores a value in both layers.
func (c *Cache) Set(key, value string, ttl time.Duration) {
	c.l1.SetWithTTL(key, value, 1, ttl)
	if c.l2 != nil {
		c.l2.Set(key, value, ttl)
	}
}

// Delete removes a key from both layers.
func (c *Cache) Delete(key string) {
	c.l1.Del(key)
	if c.l2 != nil {
		c.l2.Del(key)
	}
}

// Metrics holds hit/miss counts per layer.
type Metrics struct {
	L1Hits   uint64
	L1Misses uint64
	L2Hits   uint64
	L2Misses uint64
}

// GetMetrics returns current hit/miss counts.
func (c *Cache) GetMetrics() Metrics {
	return Metrics{
		L1Hits:   c.l1Hits.Load(),
		L1Misses: c.l1Misses.Load(),
		L2Hits:   c.l2Hits.Load(),
		L2Misses: c.l2Misses.Load(),
	}
}

// Close releases the L1 cache.
func (c *Cache) Close() {
	c.l1.Close()
}
