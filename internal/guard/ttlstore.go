package guard

import (
	"context"
	"sync"
	"time"
)

// TTLStore is a time-boxed keyed store. Entries vanish after their TTL, so
// short-lived state like pending registrations is bounded in time instead of
// accumulating in a process-global map. A background janitor reclaims
// expired entries between reads.
type TTLStore[V any] struct {
	mu      sync.Mutex
	entries map[string]ttlEntry[V]
	ttl     time.Duration
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLStore creates a store whose entries expire after ttl.
func NewTTLStore[V any](ttl time.Duration) *TTLStore[V] {
	return &TTLStore[V]{
		entries: make(map[string]ttlEntry[V]),
		ttl:     ttl,
	}
}

// Put stores a value under key, replacing any previous value and resetting
// the expiry clock.
func (s *TTLStore[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = ttlEntry[V]{value: value, expiresAt: time.Now().Add(s.ttl)}
}

// Get returns the live value for key. Expired entries read as absent.
func (s *TTLStore[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Delete removes the entry for key.
func (s *TTLStore[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len reports the number of stored entries, expired or not.
func (s *TTLStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor sweeps expired entries every interval until ctx is cancelled.
func (s *TTLStore[V]) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *TTLStore[V]) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}
