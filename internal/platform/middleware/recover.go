package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/httperr"
)

// Recover converts handler panics into a normalized 500 response so the
// server keeps accepting requests. http.ErrAbortHandler is re-raised: the
// connection is already gone and net/http treats it specially.
func Recover(normalizer *httperr.Normalizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := dErrors.Wrap(
					fmt.Errorf("panic: %v\n%s", rec, debug.Stack()),
					dErrors.CodeInternal,
					"internal server error",
				)
				normalizer.Write(w, r, err)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
