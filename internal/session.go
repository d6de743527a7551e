package internal

import (
	"context"
	"sync"
	"time"
)

// Session is what the bot remembers about one chat: the last video
// that was sent and everything derived from it
type Session struct {
	ChatID     int64
	VideoID    string
	Title      string
	Language   string
	Transcript string
	Summary    string
	UpdatedAt  time.Time
}

// SessionStore keeps chat sessions
type SessionStore interface {
	// Get returns a copy of the session for a chat
	Get(ctx context.Context, chatID int64) (*Session, bool)
	// Put replaces the session of s.ChatID
	Put(ctx context.Context, s *Session)
	// CompareAndPut replaces the session of s.ChatID only while the stored
	// one is still the version last updated at prev, and reports whether it did
	CompareAndPut(ctx context.Context, prev time.Time, s *Session) bool
	// Delete forgets a chat
	Delete(ctx context.Context, chatID int64)
}

// MemoryStore implements SessionStore using a map. Sessions live as long
// as the process; a newer video replaces the older one.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]Session),
	}
}

func (m *MemoryStore) Get(ctx context.Context, chatID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return nil, false
	}
	return &s, true
}

func (m *MemoryStore) Put(ctx context.Context, s *Session) {
	if s == nil {
		return
	}
	stored := *s
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ChatID] = stored
}

func (m *MemoryStore) CompareAndPut(ctx context.Context, prev time.Time, s *Session) bool {
	if s == nil {
		return false
	}
	stored := *s
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sessions[s.ChatID]
	if !ok || !current.UpdatedAt.Equal(prev) {
		return false
	}
	m.sessions[s.ChatID] = stored
	return true
}

func (m *MemoryStore) Delete(ctx context.Context, chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Len returns the number of chats with a session
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
