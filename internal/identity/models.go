package identity

import (
	"time"

	"keystone/pkg/domain"
)

// Principal is the authenticated identity for the current request.
//
// Invariants:
//   - Constructed fresh per request from a verified credential plus a store
//     lookup; never mutated afterwards and never shared across requests.
//   - A principal whose LockedUntil is in the future never leaves the
//     Credential Validator.
//   - TenantID is nil exactly for platform-level roles.
type Principal struct {
	ID          domain.UserID
	Email       string
	Role        domain.Role
	TenantID    *domain.TenantID
	Verified    bool
	MFAEnabled  bool
	LockedUntil *time.Time
}

// IsLocked reports whether the account is locked at the given instant.
func (p *Principal) IsLocked(now time.Time) bool {
	return p.LockedUntil != nil && p.LockedUntil.After(now)
}

// Record is a stored principal row, including credential material that must
// never travel past the login handler.
type Record struct {
	Principal
	PasswordHash string
	Active       bool
}
