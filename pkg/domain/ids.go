package domain

import (
	"github.com/google/uuid"

	dErrors "keystone/pkg/domain-errors"
)

// UserID identifies a principal account.
// Invariant: a parsed ID is a valid, non-nil UUID.
type UserID uuid.UUID

// TenantID identifies a tenant isolation boundary.
// Invariant: a parsed ID is a valid, non-nil UUID.
type TenantID uuid.UUID

// ParseUserID constructs a UserID from external input.
// Use this at trust boundaries; direct casting bypasses validation.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseTenantID constructs a TenantID from external input.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	return TenantID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}

func (u UserID) String() string { return uuid.UUID(u).String() }
func (u UserID) IsNil() bool    { return uuid.UUID(u) == uuid.Nil }

func (t TenantID) String() string { return uuid.UUID(t).String() }
func (t TenantID) IsNil() bool    { return uuid.UUID(t) == uuid.Nil }
