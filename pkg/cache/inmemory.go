package cache

import (
	"context"
	"sync"
	"time"
)

type memorySlot struct {
	payload  []byte
	storedAt time.Time
}

// MemoryStore is a thread-safe, in-memory Store. It is primarily intended
// for tests and for sessions that should leave nothing on disk.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memorySlot
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memorySlot),
	}
}

func (s *MemoryStore) Put(_ context.Context, key string, payload []byte, storedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memorySlot{payload: clone(payload), storedAt: storedAt}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.data[key]
	if !ok {
		return nil, time.Time{}, ErrMiss
	}
	return clone(slot.payload), slot.storedAt, nil
}

func (s *MemoryStore) Timestamp(_ context.Context, key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.data[key]
	if !ok {
		return time.Time{}, ErrMiss
	}
	return slot.storedAt, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of slots held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
