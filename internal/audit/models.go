package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit records by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics. These feed into SIEM systems and alerting pipelines.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Action is the coarse operation label derived from path and method.
type Action string

const (
	ActionLogin                Action = "LOGIN"
	ActionLogout               Action = "LOGOUT"
	ActionRegister             Action = "REGISTER"
	ActionPasswordResetRequest Action = "PASSWORD_RESET_REQUEST"
	ActionPasswordResetConfirm Action = "PASSWORD_RESET_CONFIRM"
	ActionEmailVerify          Action = "EMAIL_VERIFY"
	ActionPasswordChange       Action = "PASSWORD_CHANGE"
	ActionCreate               Action = "CREATE"
	ActionUpdate               Action = "UPDATE"
	ActionDelete               Action = "DELETE"
	ActionView                 Action = "VIEW"
	ActionUnknown              Action = "UNKNOWN"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]EventCategory{
	ActionLogin:                CategorySecurity,
	ActionLogout:               CategorySecurity,
	ActionRegister:             CategoryCompliance,
	ActionPasswordResetRequest: CategorySecurity,
	ActionPasswordResetConfirm: CategorySecurity,
	ActionEmailVerify:          CategorySecurity,
	ActionPasswordChange:       CategorySecurity,
	ActionCreate:               CategoryCompliance,
	ActionUpdate:               CategoryCompliance,
	ActionDelete:               CategoryCompliance,
	ActionView:                 CategoryOperations,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// UnknownTenant is the sentinel tenant value for records produced outside
// any tenant context (unauthenticated traffic, platform-level actors).
const UnknownTenant = "unknown"

// Record is the durable trace of one request, assembled after the response
// has finished sending so status and duration are final.
//
// Invariant: a Record never contains raw request or response bodies, nor
// credential material. Metadata carries query parameters and body field
// names only, never body values.
type Record struct {
	ID           uuid.UUID      `json:"id"`
	Category     EventCategory  `json:"category"`
	Timestamp    time.Time      `json:"timestamp"`
	ActorID      string         `json:"actor_id,omitempty"`
	TenantID     string         `json:"tenant_id"`
	Action       Action         `json:"action"`
	Resource     string         `json:"resource"`
	ResourceID   string         `json:"resource_id,omitempty"`
	ClientIP     string         `json:"client_ip"`
	UserAgent    string         `json:"user_agent"`
	Method       string         `json:"method"`
	Path         string         `json:"path"`
	DurationMs   int64          `json:"duration_ms"`
	StatusCode   int            `json:"status_code"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	TraceID      string         `json:"trace_id,omitempty"`
}
