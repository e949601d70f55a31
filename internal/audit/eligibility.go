package audit

import (
	"net/http"
	"strings"
)

// Path prefixes that never produce audit records.
var skipPrefixes = []string{
	"/health",
	"/metrics",
	"/docs",
	"/static",
	"/favicon",
}

// Path prefixes considered sensitive enough to audit read-class access.
var sensitiveReadPrefixes = []string{
	"/admin",
	"/users",
	"/tenants",
	"/me",
	"/audit",
}

// ShouldAudit is the eligibility predicate for durable trace capture.
//
// It is pure: the decision depends only on its arguments, so identical
// inputs always yield the same answer.
//
// Rules, in order:
//   - health/docs/static paths are never audited
//   - anything under an authentication segment is always audited
//   - state-changing methods are always audited
//   - read-class methods are audited only for authenticated access to
//     administrative, user, tenant, or other sensitive-domain resources
func ShouldAudit(method, path string, hasPrincipal bool) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}

	if strings.Contains(path, "/auth") {
		return true
	}

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}

	if !hasPrincipal {
		return false
	}
	for _, prefix := range sensitiveReadPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
