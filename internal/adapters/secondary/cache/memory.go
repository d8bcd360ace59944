package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

type entry struct {
	key      domain.CacheKey
	payload  []byte
	stale    bool
	storedAt time.Time
}

// MemoryStore is the default in-process cache store. Entries are indexed by
// their joined key path; invalidation marks them stale in place so the next
// read refetches.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

var _ ports.CacheStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
	}
}

// Get returns the payload cached under key. Stale entries read as misses.
func (s *MemoryStore) Get(_ context.Context, key domain.CacheKey) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key.String()]
	if !ok || e.stale {
		return nil, false, nil
	}
	return e.payload, true, nil
}

// Set stores the payload under key, clearing any stale mark.
func (s *MemoryStore) Set(_ context.Context, key domain.CacheKey, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key.String()] = &entry{
		key:      key,
		payload:  payload,
		storedAt: time.Now(),
	}
	return nil
}

// Invalidate marks every matching entry stale and returns the count.
// Marking an already-stale entry again is harmless, which is what makes
// overlapping sweeps from racing subscriptions order-independent.
func (s *MemoryStore) Invalidate(_ context.Context, pred domain.InvalidationPredicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, e := range s.entries {
		if pred(e.key) {
			e.stale = true
			count++
		}
	}
	return count, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close drops all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	return nil
}

// Len returns the number of entries, stale included. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
