package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"keystone/internal/authz"
	"keystone/internal/platform/metrics"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httperr"
)

// PolicyOption configures where a route's resource identifiers live.
type PolicyOption func(*policyConfig)

type policyConfig struct {
	tenantParam string
	ownerParam  string
}

// WithTenantParam declares the path parameter carrying the resource's
// tenant identifier. Defaults to "tenantID".
func WithTenantParam(name string) PolicyOption {
	return func(c *policyConfig) { c.tenantParam = name }
}

// WithOwnerParam declares the path parameter carrying the resource's owner
// identifier. Defaults to "userID".
func WithOwnerParam(name string) PolicyOption {
	return func(c *policyConfig) { c.ownerParam = name }
}

// RequirePolicy binds one declarative policy to a route. The policy value is
// shared read-only across requests; evaluation itself is pure, so a denial
// here is a decision being translated to HTTP, not an error being thrown.
func RequirePolicy(policy authz.Policy, normalizer *httperr.Normalizer, m *metrics.Metrics, opts ...PolicyOption) func(http.Handler) http.Handler {
	cfg := policyConfig{tenantParam: "tenantID", ownerParam: "userID"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			ref := authz.ResourceRef{
				TenantID: chi.URLParam(r, cfg.tenantParam),
				OwnerID:  chi.URLParam(r, cfg.ownerParam),
			}

			decision := authz.Evaluate(principal, policy, ref)
			if !decision.Allowed {
				m.IncrementAuthzDenials(string(decision.Reason))
				normalizer.Write(w, r, dErrors.Newf(dErrors.CodeForbidden, "access denied: %s", decision.Reason))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
