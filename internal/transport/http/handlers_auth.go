package httptransport

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"keystone/internal/identity"
	"keystone/internal/platform/middleware"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
	"keystone/pkg/requestcontext"
)

// errLoginFailed is the single answer for every credential mismatch at
// login. A wrong password and an unknown email must be indistinguishable.
var errLoginFailed = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type principalView struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	TenantID   string `json:"tenant_id,omitempty"`
	Verified   bool   `json:"verified"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

func viewOf(p *identity.Principal) principalView {
	view := principalView{
		ID:         p.ID.String(),
		Email:      p.Email,
		Role:       p.Role.String(),
		Verified:   p.Verified,
		MFAEnabled: p.MFAEnabled,
	}
	if p.TenantID != nil {
		view.TenantID = p.TenantID.String()
	}
	return view
}

// handleLogin exchanges an email/password pair for a bearer token.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.normalizer.Write(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		h.normalizer.Write(w, r, dErrors.New(dErrors.CodeInvalidInput, "email and password are required"))
		return
	}

	record, err := h.credentials.FindActiveByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			h.metrics.IncrementAuthFailures("unknown_email")
			h.normalizer.Write(w, r, errLoginFailed)
			return
		}
		h.normalizer.Write(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(req.Password)); err != nil {
		h.metrics.IncrementAuthFailures("wrong_password")
		h.normalizer.Write(w, r, errLoginFailed)
		return
	}

	if record.IsLocked(requestcontext.Now(ctx)) {
		h.metrics.IncrementAuthFailures("account_locked")
		h.normalizer.Write(w, r, identity.ErrAccountLocked)
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(record.ID, record.Role, record.TenantID, h.tokenTTL)
	if err != nil {
		h.normalizer.Write(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL / time.Second),
	})
}

// handleLogout revokes the presented token for its remaining lifetime.
// Without a revocation list deployed, logout degrades to a client-side
// token discard and still answers 204.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.revocations == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	raw, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims, err := h.tokens.ValidateToken(raw)
	if err != nil {
		// RequireAuth already accepted this credential; a failure here means
		// it expired in between, which makes revocation moot.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.revocations.RevokeToken(ctx, claims.ID, ttl); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		h.normalizer.Write(w, r, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the authenticated principal as resolved for this request.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		h.normalizer.Write(w, r, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	writeJSON(w, http.StatusOK, viewOf(principal))
}
