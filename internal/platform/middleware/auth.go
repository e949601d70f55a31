package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"keystone/internal/identity"
	"keystone/internal/platform/metrics"
	"keystone/pkg/platform/httperr"
)

// CredentialValidator turns a raw bearer string into a Principal.
type CredentialValidator interface {
	Validate(ctx context.Context, rawCredential string) (*identity.Principal, error)
}

// Context keys for the authenticated principal.
type contextKeyPrincipal struct{}
type contextKeyPrincipalHolder struct{}

// ContextKeyPrincipal is exported for use in handlers and tests.
var ContextKeyPrincipal = contextKeyPrincipal{}

// principalHolder lets an outer middleware (the audit wrapper) observe the
// principal resolved by an inner one. Context values only flow inward, so
// the holder is seeded outside and filled inside.
type principalHolder struct {
	principal *identity.Principal
}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns nil for unauthenticated requests.
func GetPrincipal(ctx context.Context) *identity.Principal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(*identity.Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal injects a principal into the context.
// Useful for handler tests that don't run the full middleware chain.
func WithPrincipal(ctx context.Context, p *identity.Principal) context.Context {
	ctx = context.WithValue(ctx, ContextKeyPrincipal, p)
	if holder, ok := ctx.Value(contextKeyPrincipalHolder{}).(*principalHolder); ok {
		holder.principal = p
	}
	return ctx
}

// RequireAuth extracts the bearer credential, validates it, and stores the
// resolved principal in the request context. Failures short-circuit with a
// normalized 401 before the handler runs.
func RequireAuth(validator CredentialValidator, normalizer *httperr.Normalizer, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "

			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				// normalizer.Write already logs the rejection at warn;
				// logging here too would double-log every anonymous request.
				m.IncrementAuthFailures("missing_credential")
				normalizer.Write(w, r, identity.ErrInvalidCredential)
				return
			}

			principal, err := validator.Validate(ctx, token)
			if err != nil {
				m.IncrementAuthFailures(authFailureReason(err))
				normalizer.Write(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, identity.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, identity.ErrPrincipalNotFound):
		return "principal_not_found"
	case errors.Is(err, identity.ErrInvalidCredential):
		return "invalid_credential"
	default:
		return "internal"
	}
}
