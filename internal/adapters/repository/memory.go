package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a mutex-guarded map implementing Store.
type MemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	cfg   memoryConfig
}

// NewMemoryStore creates an empty store.
func NewMemoryStore[T any](opts ...Option) *MemoryStore[T] {
	cfg := memoryConfig{name: "sessions"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore[T]{
		items: make(map[string]T),
		cfg:   cfg,
	}
}

// Name returns the store label.
func (s *MemoryStore[T]) Name() string {
	return s.cfg.name
}

// Capacity returns the configured bound, zero when unbounded.
func (s *MemoryStore[T]) Capacity() int {
	return s.cfg.capacity
}

// Create implements Store.
func (s *MemoryStore[T]) Create(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; ok {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	if s.cfg.capacity > 0 && len(s.items) >= s.cfg.capacity {
		return fmt.Errorf("%w: capacity %d", ErrCapacity, s.cfg.capacity)
	}
	s.items[id] = v
	return nil
}

// Get implements Store.
func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v, nil
}

// Delete implements Store.
func (s *MemoryStore[T]) Delete(_ context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.items, id)
	return v, nil
}

// Range implements Store. Values are visited in id order over a copy, so fn
// may call back into the store.
func (s *MemoryStore[T]) Range(_ context.Context, fn func(id string, v T) bool) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	snapshot := make(map[string]T, len(s.items))
	for id, v := range s.items {
		snapshot[id] = v
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	for _, id := range ids {
		if !fn(id, snapshot[id]) {
			return
		}
	}
}

// Count implements Store.
func (s *MemoryStore[T]) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
