package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keystone/internal/audit"
	"keystone/internal/authz"
	"keystone/internal/identity"
	"keystone/internal/platform/metrics"
	"keystone/internal/platform/middleware"
	"keystone/internal/token"
	"keystone/internal/token/revocation"
	"keystone/pkg/platform/httperr"
)

// Handler is the thin HTTP layer. It delegates to domain services and keeps
// transport concerns (decoding, status codes, route params) out of them.
type Handler struct {
	logger      *slog.Logger
	normalizer  *httperr.Normalizer
	metrics     *metrics.Metrics
	validator   *identity.Validator
	credentials identity.CredentialStore
	tokens      *token.JWTService
	revocations revocation.RevocationList
	auditQueue  audit.QueryStore // nil when the sink is append-only (Kafka)
	recorder    *audit.Recorder
	adminToken  string
	tokenTTL    time.Duration
}

// HandlerOption configures optional collaborators on the Handler.
type HandlerOption func(*Handler)

// WithRevocations enables logout and per-request revocation checks.
func WithRevocations(list revocation.RevocationList) HandlerOption {
	return func(h *Handler) { h.revocations = list }
}

// WithAuditQuery exposes the read-side audit endpoints.
func WithAuditQuery(store audit.QueryStore) HandlerOption {
	return func(h *Handler) { h.auditQueue = store }
}

// WithAdminToken protects operational endpoints with a shared secret.
func WithAdminToken(token string) HandlerOption {
	return func(h *Handler) { h.adminToken = token }
}

// WithTokenTTL overrides the access token lifetime. Defaults to 15 minutes.
func WithTokenTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.tokenTTL = ttl
		}
	}
}

func NewHandler(
	logger *slog.Logger,
	normalizer *httperr.Normalizer,
	m *metrics.Metrics,
	validator *identity.Validator,
	credentials identity.CredentialStore,
	tokens *token.JWTService,
	recorder *audit.Recorder,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		logger:      logger,
		normalizer:  normalizer,
		metrics:     m,
		validator:   validator,
		credentials: credentials,
		tokens:      tokens,
		recorder:    recorder,
		tokenTTL:    15 * time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// NewRouter wires all endpoints. The audit wrapper sits outermost on the
// application routes so it observes the final status code and the principal
// resolved by the auth middleware; health and metrics bypass it entirely.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recover(h.normalizer))

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuditCapture(h.recorder, h.metrics))

		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.normalizer, h.metrics))

			r.With(h.policy(authz.AnyAuthenticated)).
				Get("/me", h.handleMe)
			r.With(h.policy(authz.AnyAuthenticated)).
				Post("/auth/logout", h.handleLogout)

			r.With(h.policy(ownUserPolicy)).
				Get("/tenants/{tenantID}/users/{userID}", h.handleGetTenantUser)
			r.With(h.policy(authz.TenantAdminAndAbove)).
				Post("/tenants/{tenantID}/features", h.handleCreateFeature)
			r.With(h.policy(authz.PlatformAdminOnly)).
				Delete("/tenants/{tenantID}", h.handleDeleteTenant)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(h.adminToken, h.normalizer, h.logger))
		r.Get("/audit/events", h.handleListAuditEvents)
	})

	return r
}

// ownUserPolicy scopes a user-detail route to its own tenant and owner.
// Tenant admins may read any user inside their tenant.
var ownUserPolicy = authz.Policy{
	AllowedRoles:       authz.TenantMembersAndAbove.AllowedRoles,
	RequireTenantMatch: true,
	RequireOwnership:   true,
	Resource:           "user",
	Action:             "VIEW",
}

func (h *Handler) policy(p authz.Policy) func(http.Handler) http.Handler {
	return middleware.RequirePolicy(p, h.normalizer, h.metrics)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
