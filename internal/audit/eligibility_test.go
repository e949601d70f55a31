package audit

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldAudit(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		hasPrincipal bool
		want         bool
	}{
		{"health probe is never audited", http.MethodGet, "/health", false, false},
		{"health probe stays silent even authenticated", http.MethodGet, "/health", true, false},
		{"metrics scrape is never audited", http.MethodGet, "/metrics", false, false},
		{"static assets are never audited", http.MethodGet, "/static/app.css", true, false},
		{"login attempt is audited without a principal", http.MethodPost, "/auth/login", false, true},
		{"failed auth paths still audit on GET", http.MethodGet, "/auth/verify-email", false, true},
		{"state change is always audited", http.MethodDelete, "/tenants/abc", true, true},
		{"anonymous state change is audited", http.MethodPost, "/widgets", false, true},
		{"authenticated sensitive read is audited", http.MethodGet, "/tenants/abc/users/def", true, true},
		{"authenticated profile read is audited", http.MethodGet, "/me", true, true},
		{"anonymous sensitive read is not audited", http.MethodGet, "/tenants/abc", false, false},
		{"authenticated read of plain resource is not audited", http.MethodGet, "/widgets", true, false},
		{"audit trail reads are themselves audited", http.MethodGet, "/admin/audit/events", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAudit(tt.method, tt.path, tt.hasPrincipal))
		})
	}
}

// The predicate must be pure: same inputs, same answer, every time.
func TestShouldAuditIsIdempotent(t *testing.T) {
	first := ShouldAudit(http.MethodGet, "/tenants/abc", true)
	for range 100 {
		assert.Equal(t, first, ShouldAudit(http.MethodGet, "/tenants/abc", true))
	}
}
