package domain

import dErrors "keystone/pkg/domain-errors"

// ErrUnknownRole is returned when a role string is outside the closed set.
var ErrUnknownRole = dErrors.New(dErrors.CodeInvalidInput, "unknown role")

// Role is the closed set of privilege levels in the system, ordered
// informally as SuperAdmin > TenantAdmin > EndUser > Collaborator.
//
// SuperAdmin is the only platform-level role; it carries no tenant scope.
// All other roles belong to exactly one tenant.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleTenantAdmin  Role = "TENANT_ADMIN"
	RoleEndUser      Role = "END_USER"
	RoleCollaborator Role = "COLLABORATOR"
)

// validRoles is the single source of truth for role membership checks.
var validRoles = map[Role]bool{
	RoleSuperAdmin:   true,
	RoleTenantAdmin:  true,
	RoleEndUser:      true,
	RoleCollaborator: true,
}

// ParseRole constructs a Role from external input (token claims, storage rows).
// Unknown values are rejected so a forged or stale role string can never
// widen into a privileged one downstream.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", ErrUnknownRole
	}
	return r, nil
}

// IsPlatform reports whether the role operates above tenant scope.
func (r Role) IsPlatform() bool { return r == RoleSuperAdmin }

func (r Role) String() string { return string(r) }
