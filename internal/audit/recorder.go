package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"keystone/internal/platform/metrics"
)

// Recorder accepts assembled records from the request path and persists
// them in the background. Enqueue never blocks and never fails the caller:
// a full queue drops the record with a warning, and store failures are
// absorbed by the worker. Audit capture is best-effort: if the request is
// cancelled before the response finishes, no record is written.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	inbox   chan Record
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithQueueSize bounds the inbox. Defaults to 1024.
func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.inbox = make(chan Record, n)
		}
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

func NewRecorder(store Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logger,
		inbox:  make(chan Record, 1024),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Enqueue hands a record to the background worker. Fire-and-forget: the
// caller's response cycle is never delayed or failed by this call.
func (r *Recorder) Enqueue(record Record) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if record.TenantID == "" {
		record.TenantID = UnknownTenant
	}
	if record.Category == "" {
		record.Category = record.Action.Category()
	}

	select {
	case r.inbox <- record:
		if r.metrics != nil {
			r.metrics.AuditRecorded.Inc()
			r.metrics.AuditQueueDepth.Set(float64(len(r.inbox)))
		}
	default:
		if r.metrics != nil {
			r.metrics.AuditDropped.Inc()
		}
		r.logger.Warn("audit queue full, dropping record",
			"action", record.Action,
			"path", record.Path,
		)
	}
}

// Run consumes the inbox until ctx is cancelled. Store failures are logged
// and swallowed; they never propagate past the worker.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		case record := <-r.inbox:
			r.persist(ctx, record)
		}
	}
}

// drain makes a best-effort pass over whatever is still queued at shutdown,
// with a short deadline detached from the cancelled request context.
func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case record := <-r.inbox:
			r.persist(ctx, record)
		default:
			return
		}
	}
}

func (r *Recorder) persist(ctx context.Context, record Record) {
	if err := r.store.Append(ctx, record); err != nil {
		if r.metrics != nil {
			r.metrics.AuditStoreErrors.Inc()
		}
		r.logger.Error("audit store append failed",
			"error", err,
			"action", record.Action,
			"request_id", record.RequestID,
		)
	}
	if r.metrics != nil {
		r.metrics.AuditQueueDepth.Set(float64(len(r.inbox)))
	}
}
