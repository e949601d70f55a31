package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the request-authorization pipeline.
type Metrics struct {
	AuthFailures      *prometheus.CounterVec
	AuthzDenials      *prometheus.CounterVec
	AuditRecorded     prometheus.Counter
	AuditDropped      prometheus.Counter
	AuditStoreErrors  prometheus.Counter
	AuditQueueDepth   prometheus.Gauge
	RequestDurationMs prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_auth_failures_total",
			Help: "Total number of rejected bearer credentials by reason",
		}, []string{"reason"}),
		AuthzDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "keystone_authz_denials_total",
			Help: "Total number of authorization denials by reason",
		}, []string{"reason"}),
		AuditRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keystone_audit_records_total",
			Help: "Total number of audit records handed to the recorder",
		}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keystone_audit_records_dropped_total",
			Help: "Total number of audit records dropped because the queue was full",
		}),
		AuditStoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "keystone_audit_store_errors_total",
			Help: "Total number of audit store write failures (swallowed)",
		}),
		AuditQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "keystone_audit_queue_depth",
			Help: "Current number of audit records waiting for persistence",
		}),
		RequestDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "keystone_request_duration_ms",
			Help:    "Request latency in milliseconds as observed by the audit wrapper",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
	}
}

func (m *Metrics) IncrementAuthFailures(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementAuthzDenials(reason string) {
	m.AuthzDenials.WithLabelValues(reason).Inc()
}
