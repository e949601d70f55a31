package authz

import "keystone/pkg/domain"

// Policy is a declarative authorization rule bound to a route at startup.
// Policies are plain immutable data: the canonical policies below differ
// only in field values, never in behavior. Shared read-only across requests.
type Policy struct {
	// AllowedRoles is the closed set of roles that may pass. An empty set is
	// a configuration error and fails closed for everyone, including the
	// super-role.
	AllowedRoles []domain.Role

	// RequireTenantMatch demands that the principal's tenant equals the
	// resource's tenant. A principal without tenant context is denied
	// outright rather than vacuously allowed.
	RequireTenantMatch bool

	// RequireOwnership demands that the resource's owner is the principal,
	// unless the principal's role is in the ownership override set.
	RequireOwnership bool

	// Resource and Action are informational labels for logs and audit.
	Resource string
	Action   string
}

// Allows reports whether role is a member of the policy's allowed set.
func (p Policy) Allows(role domain.Role) bool {
	for _, allowed := range p.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// ownershipOverrides is the set of elevated-but-not-super roles for which
// the ownership requirement is waived. SuperAdmin never appears here; its
// bypass happens earlier in evaluation and is the only full bypass.
var ownershipOverrides = map[domain.Role]bool{
	domain.RoleTenantAdmin: true,
}

// Canonical policies. Registered once at route binding; never mutated.
var (
	// PlatformAdminOnly admits the platform super-role alone.
	PlatformAdminOnly = Policy{
		AllowedRoles: []domain.Role{domain.RoleSuperAdmin},
	}

	// TenantAdminAndAbove admits tenant administrators within their own
	// tenant, and platform admins anywhere.
	TenantAdminAndAbove = Policy{
		AllowedRoles:       []domain.Role{domain.RoleTenantAdmin, domain.RoleSuperAdmin},
		RequireTenantMatch: true,
	}

	// AnyAuthenticated admits every known role with no scoping.
	AnyAuthenticated = Policy{
		AllowedRoles: []domain.Role{
			domain.RoleSuperAdmin,
			domain.RoleTenantAdmin,
			domain.RoleEndUser,
			domain.RoleCollaborator,
		},
	}

	// TenantMembersAndAbove admits end users and above within their own
	// tenant. Collaborators are excluded.
	TenantMembersAndAbove = Policy{
		AllowedRoles: []domain.Role{
			domain.RoleEndUser,
			domain.RoleTenantAdmin,
			domain.RoleSuperAdmin,
		},
		RequireTenantMatch: true,
	}
)
