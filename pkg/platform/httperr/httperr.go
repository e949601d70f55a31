// Package httperr normalizes every failure (authentication, authorization,
// storage constraint violations, panics) into one response envelope. Handlers and middleware hand errors here instead of shaping
// responses themselves, so clients see a uniform error surface regardless
// of which pipeline stage failed.
package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
	"keystone/pkg/requestcontext"
)

// Envelope is the normalized error shape returned to every client.
// Stack is populated only outside production mode.
type Envelope struct {
	StatusCode int       `json:"statusCode"`
	Timestamp  time.Time `json:"timestamp"`
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	Error      string    `json:"error"`
	Message    any       `json:"message"`
	Stack      string    `json:"stack,omitempty"`
}

// Error kinds, matching the failure taxonomy.
const (
	KindAuthentication = "AuthenticationError"
	KindAuthorization  = "AuthorizationError"
	KindValidation     = "ValidationError"
	KindConflict       = "ConflictError"
	KindNotFound       = "NotFoundError"
	KindInternal       = "InternalError"
	KindUnavailable    = "ServiceUnavailableError"
)

// Normalizer converts errors to envelopes and applies the logging policy.
type Normalizer struct {
	logger     *slog.Logger
	production bool
}

// New builds a Normalizer. In production mode, stack traces and internal
// type names never reach the client.
func New(logger *slog.Logger, production bool) *Normalizer {
	return &Normalizer{logger: logger, production: production}
}

// Normalize classifies err into an envelope. It never fails and never
// re-panics: totally unrecognized errors become a generic 500.
func (n *Normalizer) Normalize(err error, method, path string) Envelope {
	status, kind, message := n.classify(err)

	env := Envelope{
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
		Path:       path,
		Method:     method,
		Error:      kind,
		Message:    message,
	}
	if !n.production && status >= http.StatusInternalServerError {
		env.Stack = string(debug.Stack())
	}
	return env
}

// Write normalizes err, logs it per the severity policy, and renders the
// envelope. 5xx logs at error severity with the full chain; 4xx logs at
// warn severity with the message only.
func (n *Normalizer) Write(w http.ResponseWriter, r *http.Request, err error) {
	env := n.Normalize(err, r.Method, r.URL.Path)

	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if env.StatusCode >= http.StatusInternalServerError {
		n.logger.ErrorContext(ctx, "request failed",
			"error", err,
			"status", env.StatusCode,
			"path", env.Path,
			"request_id", requestID,
			"stack", string(debug.Stack()),
		)
	} else {
		n.logger.WarnContext(ctx, "request rejected",
			"error", err.Error(),
			"status", env.StatusCode,
			"path", env.Path,
			"request_id", requestID,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	_ = json.NewEncoder(w).Encode(env)
}

// uniqueDetailRe extracts the column list from postgres unique-violation
// detail strings of the form `Key (email)=(x@example.com) already exists.`
var uniqueDetailRe = regexp.MustCompile(`Key \(([^)]+)\)=`)

// classify resolves status, kind, and client-facing message for err.
// Order matters: recognized domain errors carry their own status; then
// storage-constraint violations map through a fixed code table; everything
// else is a 500. The runtime type name surfaces as the kind only outside
// production, same as stack traces.
func (n *Normalizer) classify(err error) (int, string, string) {
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		return dErrors.ToHTTPStatus(de.Code), kindForCode(de.Code), de.Message
	}

	if status, kind, msg, ok := classifyConstraint(err); ok {
		return status, kind, msg
	}

	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, KindNotFound, "resource not found"
	case errors.Is(err, sentinel.ErrConflict):
		return http.StatusConflict, KindConflict, "resource already exists"
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable, KindUnavailable, "service temporarily unavailable"
	}

	kind := KindInternal
	if !n.production {
		kind = fmt.Sprintf("%T", err)
	}
	return http.StatusInternalServerError, kind, "internal server error"
}

// classifyConstraint maps postgres error codes to client-facing failures.
// Both drivers in use surface SQLSTATE codes: pgconn.PgError from pgx and
// pq.Error from lib/pq.
func classifyConstraint(err error) (int, string, string, bool) {
	var code, detail string

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code, detail = pgErr.Code, pgErr.Detail
	case errors.As(err, &pqErr):
		code, detail = string(pqErr.Code), pqErr.Detail
	default:
		return 0, "", "", false
	}

	switch code {
	case "23505": // unique_violation
		field := "resource"
		if m := uniqueDetailRe.FindStringSubmatch(detail); m != nil {
			field = m[1]
		}
		return http.StatusConflict, KindConflict, field + " already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, KindValidation, "invalid reference", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, KindValidation, "missing required field", true
	case "22P02": // invalid_text_representation
		return http.StatusBadRequest, KindValidation, "invalid identifier", true
	}
	return 0, "", "", false
}

func kindForCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeUnauthorized:
		return KindAuthentication
	case dErrors.CodeForbidden:
		return KindAuthorization
	case dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return KindValidation
	case dErrors.CodeConflict:
		return KindConflict
	case dErrors.CodeNotFound:
		return KindNotFound
	case dErrors.CodeUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}
