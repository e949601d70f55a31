package identity

import (
	"context"
	"strings"
	"sync"

	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
)

// InMemoryStore keeps the initial implementation lightweight and testable.
// It intentionally favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.UserID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.UserID]Record)}
}

// Save inserts or replaces a record.
func (s *InMemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

// FindActiveByID returns the principal when the record exists and is active.
// Inactive records report sentinel.ErrNotFound, same as missing ones.
func (s *InMemoryStore) FindActiveByID(_ context.Context, id domain.UserID) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok || !record.Active {
		return nil, sentinel.ErrNotFound
	}
	p := record.Principal
	return &p, nil
}

// FindActiveByEmail returns the full record for login flows.
// Email matching is case-insensitive.
func (s *InMemoryStore) FindActiveByEmail(_ context.Context, email string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.Active && strings.EqualFold(record.Email, email) {
			r := record
			return &r, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
