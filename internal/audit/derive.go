package audit

import (
	"net/http"
	"strings"
)

// authActions maps authentication path fragments to actions. Order matters:
// the first match wins, so more specific fragments come first (confirm
// before the bare reset path).
var authActions = []struct {
	fragment string
	action   Action
}{
	{"/auth/login", ActionLogin},
	{"/auth/logout", ActionLogout},
	{"/auth/register", ActionRegister},
	{"/auth/password-reset/confirm", ActionPasswordResetConfirm},
	{"/auth/password-reset", ActionPasswordResetRequest},
	{"/auth/verify-email", ActionEmailVerify},
	{"/auth/change-password", ActionPasswordChange},
}

// DeriveAction maps path and method to a coarse action label.
// Authentication-specific paths take precedence over the generic
// method-based mapping.
func DeriveAction(method, path string) Action {
	for _, m := range authActions {
		if strings.Contains(path, m.fragment) {
			return m.action
		}
	}

	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	case http.MethodGet, http.MethodHead:
		return ActionView
	default:
		return ActionUnknown
	}
}

// resourcePrefixes maps path prefixes to coarse resource-type labels.
// First matching prefix wins.
var resourcePrefixes = []struct {
	prefix   string
	resource string
}{
	{"/auth", "authentication"},
	{"/admin", "admin"},
	{"/users", "user"},
	{"/me", "user"},
	{"/tenants", "tenant"},
	{"/features", "feature"},
	{"/audit", "audit"},
}

// DeriveResource maps a path prefix to a coarse resource-type label,
// falling back to "unknown".
func DeriveResource(path string) string {
	for _, m := range resourcePrefixes {
		if strings.HasPrefix(path, m.prefix) {
			return m.resource
		}
	}
	return "unknown"
}
