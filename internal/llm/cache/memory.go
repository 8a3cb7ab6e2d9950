package cache

import (
	"context"
	"sync"
	"time"

	llmerrors "github.com/asheridan/go-arbiter/internal/llm/errors"
	"github.com/asheridan/go-arbiter/internal/llm/transport"
)

// entry is one memoized response. createdAt drives both TTL expiry and
// oldest-first capacity eviction.
type entry struct {
	resp      *transport.Response
	createdAt time.Time
	ttl       time.Duration
}

// expiredAt reports whether the entry is past its TTL at the given instant.
func (e *entry) expiredAt(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// MemoryStore is a bounded in-memory Store. When full it evicts the entry
// with the oldest createdAt; repeated identical calls are rare bursts in
// this domain, so a simple recency policy suffices over LRU/LFU.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[transport.Fingerprint]*entry
	capacity int

	stats storeStats

	// now is swapped in tests to control TTL expiry.
	now func() time.Time
}

// NewMemoryStore creates a bounded in-memory response cache.
// Capacity values below 1 fall back to a single-entry store.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryStore{
		entries:  make(map[transport.Fingerprint]*entry, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Get implements Store. Lookups past TTL evict the stale entry lazily.
func (s *MemoryStore) Get(_ context.Context, fp transport.Fingerprint) (*transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fp]
	if !ok {
		s.stats.misses.Add(1)
		return nil, llmerrors.ErrCacheMiss
	}
	if e.expiredAt(s.now()) {
		delete(s.entries, fp)
		s.stats.expirations.Add(1)
		s.stats.misses.Add(1)
		return nil, llmerrors.ErrCacheMiss
	}

	s.stats.hits.Add(1)
	return e.resp, nil
}

// Set implements Store. Overwriting an existing fingerprint refreshes its
// createdAt; inserting into a full store evicts the oldest entry first.
func (s *MemoryStore) Set(_ context.Context, fp transport.Fingerprint, resp *transport.Response, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[fp]; !exists && len(s.entries) >= s.capacity {
		s.evictOldestLocked()
	}

	s.entries[fp] = &entry{resp: resp, createdAt: s.now(), ttl: ttl}
	return nil
}

// PurgeExpired implements Store.
func (s *MemoryStore) PurgeExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for fp, e := range s.entries {
		if e.expiredAt(now) {
			delete(s.entries, fp)
			purged++
		}
	}
	s.stats.expirations.Add(int64(purged))
	return purged, nil
}

// Stats returns a snapshot of cache traffic counters.
func (s *MemoryStore) Stats() Stats { return s.stats.snapshot() }

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictOldestLocked drops the entry with the oldest createdAt.
// Caller holds s.mu.
func (s *MemoryStore) evictOldestLocked() {
	var oldestKey transport.Fingerprint
	var oldestAt time.Time
	first := true
	for fp, e := range s.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = fp
			oldestAt = e.createdAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
		s.stats.evictions.Add(1)
	}
}
