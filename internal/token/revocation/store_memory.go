package revocation

import (
	"context"
	"time"

	"keystone/internal/platform/ttlmap"
)

// MemoryList is an in-memory RevocationList for single-instance deployments
// and tests. Entries expire with the tokens they shadow, so the map stays
// small under normal churn.
type MemoryList struct {
	entries *ttlmap.Map[struct{}]
}

// NewMemoryList constructs an in-memory revocation list bounded at capacity
// entries. When the bound is hit, new revocations are rejected rather than
// evicting live ones; a rejected revocation fails loudly so operators notice.
func NewMemoryList(capacity int) *MemoryList {
	return &MemoryList{entries: ttlmap.New[struct{}](capacity)}
}

func (m *MemoryList) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if !m.entries.Set(jti, struct{}{}, ttl) {
		return errRevocationListFull
	}
	return nil
}

func (m *MemoryList) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, revoked := m.entries.Get(jti)
	return revoked, nil
}

// StartJanitor launches background purging of expired entries.
func (m *MemoryList) StartJanitor(ctx context.Context, interval time.Duration) {
	m.entries.StartJanitor(ctx, interval)
}
