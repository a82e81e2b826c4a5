// sales/cache_memory.go
package sales

import (
	"context"
	"sync"
	"time"

	"github.com/vendadia/blingserver/pkg/blingclient"
)

type memoryEntry struct {
	orders    []blingclient.SalesOrder
	expiresAt time.Time
}

// MemoryStore implements Store with a process-local map. Entries expire
// lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an in-memory sales cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get retrieves a cached day of orders, honoring the entry's TTL.
func (s *MemoryStore) Get(_ context.Context, key string) ([]blingclient.SalesOrder, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return entry.orders, nil
}

// Set stores a day of orders with the given TTL.
func (s *MemoryStore) Set(_ context.Context, key string, orders []blingclient.SalesOrder, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{orders: orders, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete invalidates a cache entry.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
