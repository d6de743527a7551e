package internal

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps YouTube lookups around so a video that several chats send
// is fetched once: L1 in process memory, L2 in Redis when configured
type Cache struct {
	l1         sync.Map // key -> *cacheEntry
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	logger     *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

const cacheKeyPrefix = AppName + ":"

// NewCache creates the cache. redisURL can be empty to disable L2; an
// unreachable Redis only logs a warning.
func NewCache(ctx context.Context, redisURL string, ttl time.Duration, maxEntries int, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{ttl: ttl, maxEntries: maxEntries, logger: logger}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				logger.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				logger.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	return c
}

// CacheKey builds a cache key from parts
func CacheKey(parts ...string) string {
	return cacheKeyPrefix + strings.Join(parts, ":")
}

// Get decodes the cached value for key into dst. An L2 hit populates L1.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil || c.ttl <= 0 {
		return false
	}

	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) && json.Unmarshal(entry.data, dst) == nil {
			c.logger.Debug("cache: L1 hit", slog.String("key", key))
			c.hits.Add(1)
			return true
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil && json.Unmarshal(data, dst) == nil {
			c.logger.Debug("cache: L2 hit", slog.String("key", key))
			c.hits.Add(1)
			c.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(c.ttl)})
			return true
		}
		if err != nil && err != redis.Nil {
			c.logger.Debug("cache: L2 get failed", slog.Any("error", err))
		}
	}

	c.misses.Add(1)
	return false
}

// Set stores value in both tiers
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.ttl <= 0 {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache: encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(c.ttl)})

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// Stats returns hit and miss counters
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the Redis connection
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// evictIfNeeded removes expired entries first, then the oldest ones,
// until L1 has room for one more
func (c *Cache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})

	for count >= c.maxEntries {
		var oldestKey any
		oldestAt := now.Add(c.ttl + time.Hour)
		c.l1.Range(func(key, val any) bool {
			// expiry = insert time + ttl, so the earliest expiry is the oldest entry
			if entry, ok := val.(*cacheEntry); ok && entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			return
		}
		c.l1.Delete(oldestKey)
		count--
	}
}
