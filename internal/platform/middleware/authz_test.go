package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"keystone/internal/authz"
	"keystone/pkg/domain"
)

// routeWithPolicy mounts a trivial handler behind RequirePolicy on a chi
// router so URL params resolve the way they do in production.
func routeWithPolicy(pattern string, policy authz.Policy, opts ...PolicyOption) chi.Router {
	r := chi.NewRouter()
	r.With(RequirePolicy(policy, testNormalizer(), testMetrics, opts...)).
		Get(pattern, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	return r
}

func TestRequirePolicyDeniesUnauthenticated(t *testing.T) {
	router := routeWithPolicy("/me", authz.AnyAuthenticated)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequirePolicyTenantScoping(t *testing.T) {
	tenantID := domain.TenantID(uuid.New())
	principal := testPrincipal(domain.RoleTenantAdmin)
	principal.TenantID = &tenantID

	router := routeWithPolicy("/tenants/{tenantID}/features", authz.TenantAdminAndAbove)

	t.Run("own tenant is allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/features", nil)
		req = req.WithContext(WithPrincipal(req.Context(), principal))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("foreign tenant is denied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants/"+uuid.NewString()+"/features", nil)
		req = req.WithContext(WithPrincipal(req.Context(), principal))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestRequirePolicyOwnership(t *testing.T) {
	tenantID := domain.TenantID(uuid.New())
	owner := testPrincipal(domain.RoleEndUser)
	owner.TenantID = &tenantID

	policy := authz.Policy{
		AllowedRoles:       []domain.Role{domain.RoleEndUser, domain.RoleTenantAdmin, domain.RoleSuperAdmin},
		RequireTenantMatch: true,
		RequireOwnership:   true,
	}
	router := routeWithPolicy("/tenants/{tenantID}/users/{userID}", policy)

	t.Run("owner reads own record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/users/"+owner.ID.String(), nil)
		req = req.WithContext(WithPrincipal(req.Context(), owner))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("other end user is denied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/users/"+uuid.NewString(), nil)
		req = req.WithContext(WithPrincipal(req.Context(), owner))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("tenant admin reads any record in its tenant", func(t *testing.T) {
		admin := testPrincipal(domain.RoleTenantAdmin)
		admin.TenantID = &tenantID

		req := httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/users/"+uuid.NewString(), nil)
		req = req.WithContext(WithPrincipal(req.Context(), admin))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRequirePolicyCustomParams(t *testing.T) {
	tenantID := domain.TenantID(uuid.New())
	principal := testPrincipal(domain.RoleTenantAdmin)
	principal.TenantID = &tenantID

	router := routeWithPolicy("/orgs/{orgID}/reports", authz.TenantAdminAndAbove, WithTenantParam("orgID"))

	req := httptest.NewRequest(http.MethodGet, "/orgs/"+uuid.NewString()+"/reports", nil)
	req = req.WithContext(WithPrincipal(req.Context(), principal))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
