package memory

import (
	"context"
	"sync"

	"keystone/internal/audit"
)

// Store is an in-memory audit sink for tests and single-instance
// development runs. Append-only; records are never mutated or deleted.
type Store struct {
	mu      sync.RWMutex
	records []audit.Record
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, record audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// ListRecent returns up to limit records, newest first.
func (s *Store) ListRecent(_ context.Context, limit int) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]audit.Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// ListByActor returns records for one actor, newest first.
func (s *Store) ListByActor(_ context.Context, actorID string) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].ActorID == actorID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}
