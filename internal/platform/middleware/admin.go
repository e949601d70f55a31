package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httperr"
	"keystone/pkg/requestcontext"
)

// RequireAdminToken guards operational endpoints with a shared secret.
// This is deliberately separate from the principal pipeline: operators hit
// these endpoints from tooling that has no user account.
func RequireAdminToken(expectedToken string, normalizer *httperr.Normalizer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			// Use constant-time comparison to prevent timing attacks
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				requestID := requestcontext.RequestID(ctx)
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestID,
				)
				normalizer.Write(w, r, dErrors.New(dErrors.CodeForbidden, "admin token required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
