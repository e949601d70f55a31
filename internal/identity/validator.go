package identity

import (
	"context"
	"errors"

	"keystone/internal/token"
	"keystone/internal/token/revocation"
	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
	"keystone/pkg/requestcontext"
)

// Authentication failure modes. All map to HTTP 401; the distinct values
// exist for metrics and server-side logging, not for the client.
var (
	ErrInvalidCredential = dErrors.New(dErrors.CodeUnauthorized, "invalid or expired credential")
	ErrPrincipalNotFound = dErrors.New(dErrors.CodeUnauthorized, "no active principal for credential")
	ErrAccountLocked     = dErrors.New(dErrors.CodeUnauthorized, "account is temporarily locked")
)

// TokenVerifier verifies a raw bearer string and returns its claims.
type TokenVerifier interface {
	ValidateToken(tokenString string) (*token.Claims, error)
}

// Validator turns a raw bearer credential into a Principal.
//
// It is stateless and reentrant: every call verifies the credential, resolves
// the subject against the store, and applies the lock check against the
// request-scoped clock. Nothing is cached between requests, so tenant
// isolation cannot leak through this path.
type Validator struct {
	tokens      TokenVerifier
	principals  PrincipalStore
	revocations revocation.RevocationList // nil disables the revocation check
}

// NewValidator wires a Validator. revocations may be nil when revocation
// tracking is not deployed.
func NewValidator(tokens TokenVerifier, principals PrincipalStore, revocations revocation.RevocationList) *Validator {
	return &Validator{
		tokens:      tokens,
		principals:  principals,
		revocations: revocations,
	}
}

// Validate verifies the credential, resolves the principal, and rejects
// locked accounts. It is read-only: no token refresh, no store writes.
func (v *Validator) Validate(ctx context.Context, rawCredential string) (*Principal, error) {
	claims, err := v.tokens.ValidateToken(rawCredential)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired credential")
	}

	if v.revocations != nil {
		if claims.ID == "" {
			return nil, ErrInvalidCredential
		}
		revoked, err := v.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check credential revocation")
		}
		if revoked {
			return nil, ErrInvalidCredential
		}
	}

	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired credential")
	}

	principal, err := v.principals.FindActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve principal")
	}

	if principal.IsLocked(requestcontext.Now(ctx)) {
		return nil, ErrAccountLocked
	}

	return principal, nil
}
