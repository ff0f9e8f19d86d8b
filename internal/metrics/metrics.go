package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all Prometheus metrics for showlog
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Storage Metrics
	StoreOpsTotal          prometheus.CounterVec
	ArchiveTransitionsTotal prometheus.CounterVec
	ArchivePurgesTotal     prometheus.CounterVec
	SnapshotWrites         prometheus.Counter

	// Webhook Metrics
	WebhookDispatchTotal  prometheus.CounterVec
	WebhookHandshakeTotal prometheus.CounterVec
	WebhookLatency        prometheus.HistogramVec
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide metrics registry. promauto registers with
// the global Prometheus registry, so this must only ever be built once.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = newRegistry()
	})
	return defaultReg
}

func newRegistry() *Registry {
	return &Registry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showlog_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showlog_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "showlog_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		StoreOpsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showlog_store_operations_total",
				Help: "Total storage provider operations by backend and operation",
			},
			[]string{"backend", "operation"},
		),
		ArchiveTransitionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showlog_archive_transitions_total",
				Help: "Shows moved into the archive, by backend and trigger (auto, manual, deleted)",
			},
			[]string{"backend", "trigger"},
		),
		ArchivePurgesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showlog_archive_purges_total",
				Help: "Archived shows permanently purged after the retention window",
			},
			[]string{"backend"},
		),
		SnapshotWrites: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "showlog_snapshot_writes_total",
				Help: "Whole-file snapshot rewrites performed by the embedded store",
			},
		),

		WebhookDispatchTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showlog_webhook_dispatch_total",
				Help: "Webhook dispatch attempts by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		WebhookHandshakeTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showlog_webhook_handshake_total",
				Help: "Webhook handshake probes by HTTP method and outcome",
			},
			[]string{"method", "outcome"},
		),
		WebhookLatency: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showlog_webhook_latency_seconds",
				Help:    "Webhook delivery latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"event"},
		),
	}
}
