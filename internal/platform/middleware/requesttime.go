package middleware

import (
	"net/http"
	"time"

	"keystone/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request
// and stores it in the context for consistent time references throughout
// the request. Lock checks and audit timestamps all observe the same "now".
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		ctx := requestcontext.WithTime(r.Context(), now)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
