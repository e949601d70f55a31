package httptransport

import (
	"net/http"
	"strconv"

	"keystone/internal/audit"
	dErrors "keystone/pkg/domain-errors"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

type auditEventsResponse struct {
	Events []audit.Record `json:"events"`
	Count  int            `json:"count"`
}

// handleListAuditEvents exposes the audit trail to operators. Only available
// when the configured sink supports reads; the Kafka sink does not.
func (h *Handler) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.auditQueue == nil {
		h.normalizer.Write(w, r, dErrors.New(dErrors.CodeUnavailable, "audit sink does not support queries"))
		return
	}

	var (
		events []audit.Record
		err    error
	)
	if actor := r.URL.Query().Get("actor"); actor != "" {
		events, err = h.auditQueue.ListByActor(ctx, actor)
	} else {
		limit := defaultAuditPageSize
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, parseErr := strconv.Atoi(raw)
			if parseErr != nil || parsed < 1 {
				h.normalizer.Write(w, r, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
				return
			}
			limit = min(parsed, maxAuditPageSize)
		}
		events, err = h.auditQueue.ListRecent(ctx, limit)
	}
	if err != nil {
		h.normalizer.Write(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit events"))
		return
	}

	if events == nil {
		events = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, auditEventsResponse{Events: events, Count: len(events)})
}
