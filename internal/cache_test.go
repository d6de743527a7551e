package internal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMemory(t *testing.T) {
	ctx := context.Background()
	c := NewCache(ctx, "", time.Hour, 10, nil)

	var got Transcript
	assert.False(t, c.Get(ctx, "missing", &got))

	c.Set(ctx, CacheKey("transcript", "abc"), &Transcript{VideoID: "abc", Text: "hello"})
	require.True(t, c.Get(ctx, CacheKey("transcript", "abc"), &got))
	assert.Equal(t, "hello", got.Text)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "tldwbot:transcript:abc:ru,en", CacheKey("transcript", "abc", "ru,en"))
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewCache(ctx, "", 20*time.Millisecond, 10, nil)

	c.Set(ctx, "k", "v")
	time.Sleep(40 * time.Millisecond)

	var got string
	assert.False(t, c.Get(ctx, "k", &got))
}

func TestCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := NewCache(ctx, "", time.Hour, 2, nil)

	c.Set(ctx, "a", 1)
	time.Sleep(time.Millisecond)
	c.Set(ctx, "b", 2)
	time.Sleep(time.Millisecond)
	c.Set(ctx, "c", 3)

	var v int
	assert.False(t, c.Get(ctx, "a", &v), "oldest entry should be evicted")
	assert.True(t, c.Get(ctx, "b", &v))
	assert.True(t, c.Get(ctx, "c", &v))
	assert.Equal(t, 3, v)
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()

	var nilCache *Cache
	nilCache.Set(ctx, "k", "v")
	var got string
	assert.False(t, nilCache.Get(ctx, "k", &got))
	assert.NoError(t, nilCache.Close())

	off := NewCache(ctx, "", 0, 10, nil)
	off.Set(ctx, "k", "v")
	assert.False(t, off.Get(ctx, "k", &got))
}

func TestCacheBadRedisURL(t *testing.T) {
	ctx := context.Background()
	c := NewCache(ctx, "not a url", time.Hour, 10, nil)
	defer c.Close()

	c.Set(ctx, "k", "v")
	var got string
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)
}

func TestCacheRedis(t *testing.T) {
	redisURL := os.Getenv("TLDWBOT_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("Skipping Redis test: TLDWBOT_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	writer := NewCache(ctx, redisURL, time.Minute, 10, nil)
	defer writer.Close()
	require.NotNil(t, writer.rdb, "redis should be reachable")

	key := CacheKey("test", time.Now().Format(time.RFC3339Nano))
	writer.Set(ctx, key, &VideoMetadata{ID: "abc", Title: "From Redis"})

	// a second cache has an empty L1, so the value must come from Redis
	reader := NewCache(ctx, redisURL, time.Minute, 10, nil)
	defer reader.Close()

	var got VideoMetadata
	require.True(t, reader.Get(ctx, key, &got))
	assert.Equal(t, "From Redis", got.Title)

	_ = writer.rdb.Del(ctx, key).Err()
}
