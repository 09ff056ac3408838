// Package cache provides time-bounded memoization for analysis results.
//
// Entries expire only by TTL; there is no invalidation on underlying data
// changes. Concurrent misses on one key may compute twice (last writer
// wins), which is acceptable because the memoized computations are
// idempotent and side-effect-free.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a TTL-bounded key/value memoizer for a single value type.
type Store[V any] struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry[V]
}

func NewStore[V any]() *Store[V] {
	return NewStoreWithClock[V](time.Now)
}

// NewStoreWithClock injects the clock, for expiry tests.
func NewStoreWithClock[V any](now func() time.Time) *Store[V] {
	return &Store[V]{
		now:     now,
		entries: make(map[string]entry[V]),
	}
}

// GetOrCompute returns the live cached value for key, or invokes compute,
// stores the result with an absolute expiry of now+ttl and returns it.
// The second return reports whether the value came from the cache. Compute
// errors are returned as-is and never cached.
//
// The lock is released while compute runs so slow computations do not block
// unrelated keys.
func (s *Store[V]) GetOrCompute(key string, ttl time.Duration, compute func() (V, error)) (V, bool, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && s.now().Before(e.expiresAt) {
		s.mu.Unlock()
		return e.value, true, nil
	}
	s.mu.Unlock()

	value, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(ttl)}
	s.evictExpiredLocked()
	s.mu.Unlock()
	return value, false, nil
}

// Len reports the number of live entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	return len(s.entries)
}

func (s *Store[V]) evictExpiredLocked() {
	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}
