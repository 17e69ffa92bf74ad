package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// lruSlot is the internal structure stored in the linked list.
type lruSlot struct {
	key      string
	payload  []byte
	storedAt time.Time
}

// LRUStore is a thread-safe, in-memory Store with a fixed number of slots
// and a Least Recently Used eviction policy. Overviews use it: one per
// viewed symbol, with only the recent ones worth keeping.
type LRUStore struct {
	maxSize int

	mu    sync.Mutex
	ll    *list.List               // recency order, front is newest
	slots map[string]*list.Element // fast key lookups
}

// NewLRUStore creates a size-limited store. maxSize must be > 0.
func NewLRUStore(maxSize int) (*LRUStore, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("maxSize must be greater than 0")
	}
	return &LRUStore{
		maxSize: maxSize,
		ll:      list.New(),
		slots:   make(map[string]*list.Element),
	}, nil
}

func (s *LRUStore) Put(_ context.Context, key string, payload []byte, storedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.slots[key]; ok {
		slot := elem.Value.(*lruSlot)
		slot.payload = clone(payload)
		slot.storedAt = storedAt
		s.ll.MoveToFront(elem)
		return nil
	}

	s.slots[key] = s.ll.PushFront(&lruSlot{key: key, payload: clone(payload), storedAt: storedAt})
	if s.ll.Len() > s.maxSize {
		s.evict()
	}
	return nil
}

// Get marks key as recently used.
func (s *LRUStore) Get(_ context.Context, key string) ([]byte, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.slots[key]
	if !ok {
		return nil, time.Time{}, ErrMiss
	}
	s.ll.MoveToFront(elem)
	slot := elem.Value.(*lruSlot)
	return clone(slot.payload), slot.storedAt, nil
}

// Timestamp does not affect recency.
func (s *LRUStore) Timestamp(_ context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.slots[key]
	if !ok {
		return time.Time{}, ErrMiss
	}
	return elem.Value.(*lruSlot).storedAt, nil
}

func (s *LRUStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.slots[key]; ok {
		s.ll.Remove(elem)
		delete(s.slots, key)
	}
	return nil
}

// Len returns the number of slots held.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

// evict removes the least recently used slot. Must be called with mu held.
func (s *LRUStore) evict() {
	if elem := s.ll.Back(); elem != nil {
		slot := s.ll.Remove(elem).(*lruSlot)
		delete(s.slots, slot.key)
	}
}

// Close is a no-op for the in-memory store.
func (s *LRUStore) Close() error {
	return nil
}
