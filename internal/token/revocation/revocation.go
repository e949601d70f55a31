// Package revocation tracks bearer credentials that were invalidated before
// their natural expiry. The Credential Validator consults a RevocationList
// after signature and expiry checks; a revoked jti is indistinguishable
// from an invalid credential to the client.
package revocation

import (
	"context"
	"fmt"
	"time"

	"keystone/pkg/platform/sentinel"
)

// RevocationList records revoked token IDs (jti) until their TTL elapses.
// Entries only need to live as long as the token they shadow.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

var errRevocationListFull = fmt.Errorf("revocation list at capacity: %w", sentinel.ErrUnavailable)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
