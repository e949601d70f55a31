package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keystone/internal/identity"
	"keystone/pkg/domain"
)

func newPrincipal(role domain.Role, tenantID *domain.TenantID) *identity.Principal {
	return &identity.Principal{
		ID:       domain.UserID(uuid.New()),
		Email:    "test@example.com",
		Role:     role,
		TenantID: tenantID,
	}
}

func tenantPtr(t *testing.T, raw string) *domain.TenantID {
	t.Helper()
	id, err := domain.ParseTenantID(raw)
	require.NoError(t, err)
	return &id
}

func TestEvaluate(t *testing.T) {
	tenantA := "0b6f1a52-3d4e-4f8a-9c1b-2e7d8a5f6c3d"
	tenantB := "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"

	tests := []struct {
		name      string
		principal *identity.Principal
		policy    Policy
		ref       ResourceRef
		allowed   bool
		reason    DenialReason
	}{
		{
			name:      "nil principal is denied",
			principal: nil,
			policy:    AnyAuthenticated,
			allowed:   false,
			reason:    ReasonUnauthenticated,
		},
		{
			name:      "role outside allowed set is denied",
			principal: newPrincipal(domain.RoleCollaborator, nil),
			policy:    TenantAdminAndAbove,
			allowed:   false,
			reason:    ReasonRoleNotPermitted,
		},
		{
			name:      "empty allowed set denies everyone including the super role",
			principal: newPrincipal(domain.RoleSuperAdmin, nil),
			policy:    Policy{RequireTenantMatch: true},
			allowed:   false,
			reason:    ReasonRoleNotPermitted,
		},
		{
			name:      "super role bypasses tenant scoping",
			principal: newPrincipal(domain.RoleSuperAdmin, nil),
			policy:    TenantAdminAndAbove,
			ref:       ResourceRef{TenantID: tenantA},
			allowed:   true,
		},
		{
			name:      "super role bypasses ownership",
			principal: newPrincipal(domain.RoleSuperAdmin, nil),
			policy: Policy{
				AllowedRoles:     []domain.Role{domain.RoleSuperAdmin, domain.RoleEndUser},
				RequireOwnership: true,
			},
			ref:     ResourceRef{OwnerID: uuid.NewString()},
			allowed: true,
		},
		{
			name:      "tenant-scoped policy denies principal without tenant context",
			principal: newPrincipal(domain.RoleTenantAdmin, nil),
			policy:    TenantAdminAndAbove,
			ref:       ResourceRef{TenantID: tenantA},
			allowed:   false,
			reason:    ReasonNoTenantContext,
		},
		{
			name:      "tenant mismatch is denied",
			principal: newPrincipal(domain.RoleTenantAdmin, tenantPtr(t, tenantA)),
			policy:    TenantAdminAndAbove,
			ref:       ResourceRef{TenantID: tenantB},
			allowed:   false,
			reason:    ReasonTenantMismatch,
		},
		{
			name:      "matching tenant is allowed",
			principal: newPrincipal(domain.RoleTenantAdmin, tenantPtr(t, tenantA)),
			policy:    TenantAdminAndAbove,
			ref:       ResourceRef{TenantID: tenantA},
			allowed:   true,
		},
		{
			name:      "resource without tenant identifier passes tenant check",
			principal: newPrincipal(domain.RoleTenantAdmin, tenantPtr(t, tenantA)),
			policy:    TenantAdminAndAbove,
			ref:       ResourceRef{},
			allowed:   true,
		},
		{
			name:      "end user cannot touch another user's resource",
			principal: newPrincipal(domain.RoleEndUser, tenantPtr(t, tenantA)),
			policy: Policy{
				AllowedRoles:       []domain.Role{domain.RoleEndUser, domain.RoleTenantAdmin},
				RequireTenantMatch: true,
				RequireOwnership:   true,
			},
			ref:     ResourceRef{TenantID: tenantA, OwnerID: uuid.NewString()},
			allowed: false,
			reason:  ReasonOwnershipViolation,
		},
		{
			name:      "tenant admin overrides ownership inside its tenant",
			principal: newPrincipal(domain.RoleTenantAdmin, tenantPtr(t, tenantA)),
			policy: Policy{
				AllowedRoles:       []domain.Role{domain.RoleEndUser, domain.RoleTenantAdmin},
				RequireTenantMatch: true,
				RequireOwnership:   true,
			},
			ref:     ResourceRef{TenantID: tenantA, OwnerID: uuid.NewString()},
			allowed: true,
		},
		{
			name:      "tenant admin ownership override stops at the tenant boundary",
			principal: newPrincipal(domain.RoleTenantAdmin, tenantPtr(t, tenantA)),
			policy: Policy{
				AllowedRoles:       []domain.Role{domain.RoleEndUser, domain.RoleTenantAdmin},
				RequireTenantMatch: true,
				RequireOwnership:   true,
			},
			ref:     ResourceRef{TenantID: tenantB, OwnerID: uuid.NewString()},
			allowed: false,
			reason:  ReasonTenantMismatch,
		},
		{
			name:      "resource without owner identifier passes ownership check",
			principal: newPrincipal(domain.RoleEndUser, tenantPtr(t, tenantA)),
			policy: Policy{
				AllowedRoles:     []domain.Role{domain.RoleEndUser},
				RequireOwnership: true,
			},
			ref:     ResourceRef{},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(tt.principal, tt.policy, tt.ref)
			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestEvaluateOwnerMatchesPrincipal(t *testing.T) {
	principal := newPrincipal(domain.RoleEndUser, tenantPtr(t, "0b6f1a52-3d4e-4f8a-9c1b-2e7d8a5f6c3d"))
	policy := Policy{
		AllowedRoles:     []domain.Role{domain.RoleEndUser},
		RequireOwnership: true,
	}

	decision := Evaluate(principal, policy, ResourceRef{OwnerID: principal.ID.String()})
	assert.True(t, decision.Allowed)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	principal := newPrincipal(domain.RoleEndUser, nil)
	policy := TenantMembersAndAbove
	ref := ResourceRef{TenantID: "0b6f1a52-3d4e-4f8a-9c1b-2e7d8a5f6c3d"}

	first := Evaluate(principal, policy, ref)
	for range 10 {
		assert.Equal(t, first, Evaluate(principal, policy, ref))
	}
}

func TestCanonicalPolicies(t *testing.T) {
	t.Run("platform admin only excludes tenant admin", func(t *testing.T) {
		decision := Evaluate(newPrincipal(domain.RoleTenantAdmin, nil), PlatformAdminOnly, ResourceRef{})
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonRoleNotPermitted, decision.Reason)
	})

	t.Run("tenant members excludes collaborator", func(t *testing.T) {
		decision := Evaluate(newPrincipal(domain.RoleCollaborator, nil), TenantMembersAndAbove, ResourceRef{})
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonRoleNotPermitted, decision.Reason)
	})

	t.Run("any authenticated admits collaborator", func(t *testing.T) {
		decision := Evaluate(newPrincipal(domain.RoleCollaborator, nil), AnyAuthenticated, ResourceRef{})
		assert.True(t, decision.Allowed)
	})
}
