package session

import (
	"context"
	"sync"

	"github.com/hupe1980/chatthread/core"
)

// InMemoryStore is a volatile ThreadStore keeping encoded thread blobs in a
// process local map. Threads go through the same codec as the Redis store so
// round-trip semantics are identical. Safe for concurrent access.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ core.ThreadStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in‑memory thread store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

// Save encodes the thread and overwrites any prior value for the session.
func (s *InMemoryStore) Save(_ context.Context, sessionID string, thread *core.Thread) error {
	if sessionID == "" {
		return core.ErrEmptySessionID
	}
	data, err := core.MarshalThread(thread)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[core.ThreadKey(sessionID)] = data
	return nil
}

// Load decodes the stored thread; (nil, false, nil) when absent.
func (s *InMemoryStore) Load(_ context.Context, sessionID string) (*core.Thread, bool, error) {
	if sessionID == "" {
		return nil, false, core.ErrEmptySessionID
	}
	s.mu.RLock()
	data, ok := s.blobs[core.ThreadKey(sessionID)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	t, err := core.UnmarshalThread(data)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// Raw returns a copy of the stored bytes under key (tests, debugging).
func (s *InMemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// SetRaw stores arbitrary bytes under key, bypassing the codec.
func (s *InMemoryStore) SetRaw(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
}

// Keys returns the number of stored keys.
func (s *InMemoryStore) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
