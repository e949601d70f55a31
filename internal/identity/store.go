package identity

import (
	"context"

	"keystone/pkg/domain"
)

// PrincipalStore resolves token subjects to live principal records.
// Implementations return sentinel.ErrNotFound (optionally wrapped) when no
// active record exists; inactive accounts are indistinguishable from missing
// ones.
type PrincipalStore interface {
	FindActiveByID(ctx context.Context, id domain.UserID) (*Principal, error)
}

// CredentialStore is the wider lookup used only by the login handler, where
// the stored password hash is needed for comparison.
type CredentialStore interface {
	PrincipalStore
	FindActiveByEmail(ctx context.Context, email string) (*Record, error)
}
