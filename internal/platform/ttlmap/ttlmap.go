// Package ttlmap provides a bounded in-memory map with per-entry expiry.
// It backs the in-memory revocation checker and any other short-lived
// key→value state that would otherwise become a process-global cache.
// Inject an instance behind an interface; never share one across tenants
// with loosely scoped keys.
package ttlmap

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Map is a thread-safe map whose entries expire after a TTL. When the map is
// at capacity, expired entries are purged first; if none are expired the
// write is dropped and Set returns false. Dropping writes keeps memory
// bounded at the cost of completeness, which callers must tolerate.
type Map[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	capacity int
}

// New creates a Map holding at most capacity live entries.
func New[V any](capacity int) *Map[V] {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Map[V]{
		entries:  make(map[string]entry[V]),
		capacity: capacity,
	}
}

// Set stores value under key for ttl. Returns false if the map was full.
func (m *Map[V]) Set(key string, value V, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.capacity {
		m.purgeLocked(now)
		if len(m.entries) >= m.capacity {
			return false
		}
	}
	m.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	return true
}

// Get returns the live value for key, if any.
func (m *Map[V]) Get(key string) (V, bool) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || now.After(e.expiresAt) {
		var zero V
		if ok {
			delete(m.entries, key)
		}
		return zero, false
	}
	return e.value, true
}

// Delete removes key immediately.
func (m *Map[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len returns the number of entries, including any not yet purged.
func (m *Map[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// StartJanitor purges expired entries every interval until ctx is cancelled.
func (m *Map[V]) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.mu.Lock()
				m.purgeLocked(now)
				m.mu.Unlock()
			}
		}
	}()
}

func (m *Map[V]) purgeLocked(now time.Time) {
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
