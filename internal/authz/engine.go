// Package authz evaluates declarative policies against resolved principals.
//
// Evaluation is a pure function over its inputs: no store lookups, no shared
// state, no exceptions. Denial is a value, not an error; the transport layer
// translates it into a 403. This keeps the decision logic trivially
// unit-testable and safe under arbitrary request interleaving.
package authz

import (
	"keystone/internal/identity"
)

// DenialReason enumerates why a decision denied access.
type DenialReason string

const (
	ReasonUnauthenticated    DenialReason = "UNAUTHENTICATED"
	ReasonRoleNotPermitted   DenialReason = "ROLE_NOT_PERMITTED"
	ReasonNoTenantContext    DenialReason = "NO_TENANT_CONTEXT"
	ReasonTenantMismatch     DenialReason = "TENANT_MISMATCH"
	ReasonOwnershipViolation DenialReason = "OWNERSHIP_VIOLATION"
)

// Decision is the outcome of evaluating one policy against one principal.
// Reason is set iff Allowed is false.
type Decision struct {
	Allowed bool
	Reason  DenialReason
}

func allow() Decision              { return Decision{Allowed: true} }
func deny(r DenialReason) Decision { return Decision{Reason: r} }

// ResourceRef carries the target resource's identifiers as extracted from
// the request (path parameters or declared body fields). An empty string
// means the resource does not carry that identifier.
type ResourceRef struct {
	TenantID string
	OwnerID  string
}

// Evaluate applies policy to principal and the target resource.
//
// Checks run in a fixed order and short-circuit on the first denial:
//
//  1. absent principal denies (Unauthenticated)
//  2. role outside AllowedRoles denies (RoleNotPermitted); an empty set
//     therefore denies everyone, the super-role included
//  3. the super-role passes unconditionally; this is the only bypass
//  4. tenant match: principal without tenant context denies; a resource
//     carrying a tenant identifier must match the principal's
//  5. ownership: a resource carrying an owner identifier must match the
//     principal's ID unless the role is in the ownership override set
//
// A resource that carries no tenant or owner identifier passes the
// corresponding check; the resource is simply not scoped that way. Changing
// that default to a denial is a deliberate security decision, not a bug fix.
func Evaluate(principal *identity.Principal, policy Policy, ref ResourceRef) Decision {
	if principal == nil {
		return deny(ReasonUnauthenticated)
	}

	if !policy.Allows(principal.Role) {
		return deny(ReasonRoleNotPermitted)
	}

	if principal.Role.IsPlatform() {
		return allow()
	}

	if policy.RequireTenantMatch {
		if principal.TenantID == nil {
			return deny(ReasonNoTenantContext)
		}
		if ref.TenantID != "" && ref.TenantID != principal.TenantID.String() {
			return deny(ReasonTenantMismatch)
		}
	}

	if policy.RequireOwnership {
		if ref.OwnerID != "" && ref.OwnerID != principal.ID.String() && !ownershipOverrides[principal.Role] {
			return deny(ReasonOwnershipViolation)
		}
	}

	return allow()
}
