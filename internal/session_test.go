package internal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok := store.Get(ctx, 1)
	assert.False(t, ok)

	store.Put(ctx, &Session{ChatID: 1, VideoID: "aaaaaaaaaaa", Transcript: "first"})
	s, ok := store.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "aaaaaaaaaaa", s.VideoID)
	assert.False(t, s.UpdatedAt.IsZero())

	// returned sessions are copies
	s.Transcript = "changed"
	again, _ := store.Get(ctx, 1)
	assert.Equal(t, "first", again.Transcript)

	// last write wins
	store.Put(ctx, &Session{ChatID: 1, VideoID: "bbbbbbbbbbb", Transcript: "second"})
	s, _ = store.Get(ctx, 1)
	assert.Equal(t, "bbbbbbbbbbb", s.VideoID)
	assert.Equal(t, 1, store.Len())

	// chats are independent
	store.Put(ctx, &Session{ChatID: 2, VideoID: "ccccccccccc"})
	assert.Equal(t, 2, store.Len())

	store.Delete(ctx, 1)
	_, ok = store.Get(ctx, 1)
	assert.False(t, ok)
	_, ok = store.Get(ctx, 2)
	assert.True(t, ok)

	store.Put(ctx, nil)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chatID := int64(i % 5)
			store.Put(ctx, &Session{ChatID: chatID, VideoID: fmt.Sprintf("video%06d", i)})
			_, _ = store.Get(ctx, chatID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}

func TestMemoryStoreCompareAndPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.False(t, store.CompareAndPut(ctx, time.Time{}, &Session{ChatID: 1, Summary: "x"}), "no session to replace")
	_, ok := store.Get(ctx, 1)
	assert.False(t, ok)

	first := time.Now()
	store.Put(ctx, &Session{ChatID: 1, VideoID: "aaaaaaaaaaa", UpdatedAt: first})

	require.True(t, store.CompareAndPut(ctx, first, &Session{ChatID: 1, VideoID: "aaaaaaaaaaa", Summary: "done"}))
	got, _ := store.Get(ctx, 1)
	assert.Equal(t, "done", got.Summary)
	assert.False(t, got.UpdatedAt.IsZero())

	// stale version
	assert.False(t, store.CompareAndPut(ctx, first, &Session{ChatID: 1, VideoID: "aaaaaaaaaaa", Summary: "stale"}))
	got, _ = store.Get(ctx, 1)
	assert.Equal(t, "done", got.Summary)
}
