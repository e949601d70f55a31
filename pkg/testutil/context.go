package testutil

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"keystone/internal/identity"
	"keystone/internal/platform/middleware"
	"keystone/pkg/domain"
	"keystone/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated principal to the request context,
// simulating what RequireAuth does for handler tests that skip the
// middleware chain.
func WithPrincipal(req *http.Request, p *identity.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

// WithRequestTime pins the request clock so lock-window assertions are
// deterministic.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// NewPrincipal builds a minimal active principal with a random ID.
func NewPrincipal(role domain.Role, tenantID *domain.TenantID) *identity.Principal {
	return &identity.Principal{
		ID:       domain.UserID(uuid.New()),
		Email:    "principal@example.test",
		Role:     role,
		TenantID: tenantID,
		Verified: true,
	}
}

// TenantIDPtr parses a tenant ID and returns its address, panicking on bad
// input. Test fixtures only.
func TenantIDPtr(raw string) *domain.TenantID {
	id, err := domain.ParseTenantID(raw)
	if err != nil {
		panic(err)
	}
	return &id
}
