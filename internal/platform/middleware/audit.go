package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel/trace"

	"keystone/internal/audit"
	"keystone/internal/platform/metrics"
	"keystone/pkg/requestcontext"
)

// maxBodyPeek bounds how much of a request body the audit wrapper inspects
// when collecting field names.
const maxBodyPeek = 64 << 10

// AuditCapture assembles an audit record once the handler has finished
// writing the response, so status code and duration are final. It must be
// the outermost per-route middleware: it seeds the principal holder that
// RequireAuth fills, and it observes the wrapped response writer's status.
//
// Handoff to the recorder is fire-and-forget; nothing in here can fail
// or delay the response.
func AuditCapture(recorder *audit.Recorder, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder := &principalHolder{}
			ctx := context.WithValue(r.Context(), contextKeyPrincipalHolder{}, holder)
			r = r.WithContext(ctx)

			bodyFields := peekBodyFields(r)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			duration := time.Since(start)

			m.RequestDurationMs.Observe(float64(duration.Microseconds()) / 1000.0)

			principal := holder.principal
			if !audit.ShouldAudit(r.Method, r.URL.Path, principal != nil) {
				return
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			record := audit.Record{
				Timestamp:  requestcontext.Now(ctx),
				Action:     audit.DeriveAction(r.Method, r.URL.Path),
				Resource:   audit.DeriveResource(r.URL.Path),
				ResourceID: resourceIDFromRoute(r),
				ClientIP:   requestcontext.ClientIP(ctx),
				UserAgent:  requestcontext.UserAgent(ctx),
				Method:     r.Method,
				Path:       r.URL.Path,
				DurationMs: duration.Milliseconds(),
				StatusCode: status,
				Success:    status < http.StatusBadRequest,
				Metadata:   buildMetadata(r, bodyFields),
				RequestID:  requestcontext.RequestID(ctx),
			}
			if principal != nil {
				record.ActorID = principal.ID.String()
				if principal.TenantID != nil {
					record.TenantID = principal.TenantID.String()
				}
			}
			if record.TenantID == "" {
				record.TenantID = chi.URLParam(r, "tenantID")
			}
			if status >= http.StatusBadRequest {
				record.ErrorMessage = http.StatusText(status)
			}
			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				record.TraceID = sc.TraceID().String()
			}

			recorder.Enqueue(record)
		})
	}
}

// resourceIDFromRoute pulls the most specific path parameter as the target
// resource identifier.
func resourceIDFromRoute(r *http.Request) string {
	for _, name := range []string{"userID", "featureID", "id", "tenantID"} {
		if v := chi.URLParam(r, name); v != "" {
			return v
		}
	}
	return ""
}

// peekBodyFields reads a bounded prefix of a JSON request body and returns
// its top-level field names, restoring the body for the handler. Values are
// discarded immediately: only names may reach the audit store.
func peekBodyFields(r *http.Request) []string {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	if err != nil {
		return nil
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf), r.Body))

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(buf, &payload); err != nil {
		return nil
	}

	fields := make([]string, 0, len(payload))
	for name := range payload {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// buildMetadata collects query parameters, body field names, and a parsed
// user-agent summary. Never body values, never credential material.
func buildMetadata(r *http.Request, bodyFields []string) map[string]any {
	metadata := map[string]any{}

	if query := r.URL.Query(); len(query) > 0 {
		params := make(map[string]string, len(query))
		for key, values := range query {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
		metadata["query"] = params
	}

	if len(bodyFields) > 0 {
		metadata["body_fields"] = bodyFields
		metadata["body_field_count"] = len(bodyFields)
	}

	if rawUA := r.Header.Get("User-Agent"); rawUA != "" {
		ua := useragent.New(rawUA)
		browser, version := ua.Browser()
		metadata["client"] = map[string]any{
			"browser": browser,
			"version": version,
			"os":      ua.OS(),
			"mobile":  ua.Mobile(),
			"bot":     ua.Bot(),
		}
	}

	if len(metadata) == 0 {
		return nil
	}
	return metadata
}
