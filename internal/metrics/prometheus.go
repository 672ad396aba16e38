package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the admin node.
type Metrics struct {
	// HTTP surface
	RequestsTotal   prometheus.CounterVec
	RequestDuration prometheus.Histogram
	StreamedRows    prometheus.Counter
	ConditionalHits prometheus.Counter
	ConditionalMiss prometheus.Counter

	// Replication control
	RoutedCommands    prometheus.Counter
	BroadcastReplies  prometheus.CounterVec
	ReconcileOutcomes prometheus.CounterVec

	// Catalog
	CatalogMutations prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(nodeID string) *Metrics {
	labels := prometheus.Labels{"node_id": nodeID}

	return &Metrics{
		RequestsTotal: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "admin",
			Name:        "requests_total",
			Help:        "Total number of admin API requests by status class",
			ConstLabels: labels,
		}, []string{"status"}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "quillstore",
			Subsystem:   "admin",
			Name:        "request_duration_seconds",
			Help:        "Histogram of admin API request durations",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		StreamedRows: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "admin",
			Name:        "streamed_rows_total",
			Help:        "Total rows written by streaming listing responses",
			ConstLabels: labels,
		}),
		ConditionalHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "admin",
			Name:        "conditional_hits_total",
			Help:        "Listings short-circuited by an ETag match",
			ConstLabels: labels,
		}),
		ConditionalMiss: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "admin",
			Name:        "conditional_misses_total",
			Help:        "Listings that required full enumeration",
			ConstLabels: labels,
		}),
		RoutedCommands: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "replicator",
			Name:        "routed_commands_total",
			Help:        "Replication commands dispatched to an owning member",
			ConstLabels: labels,
		}),
		BroadcastReplies: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "replicator",
			Name:        "broadcast_replies_total",
			Help:        "Broadcast cancellation replies by kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		ReconcileOutcomes: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "replicator",
			Name:        "reconcile_outcomes_total",
			Help:        "Reconciliation verdicts by kind",
			ConstLabels: labels,
		}, []string{"kind"}),
		CatalogMutations: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "quillstore",
			Subsystem:   "catalog",
			Name:        "mutations_total",
			Help:        "Catalog mutations by operation",
			ConstLabels: labels,
		}, []string{"op"}),
	}
}

// RecordRequest records one admin API request.
func (m *Metrics) RecordRequest(statusClass string, seconds float64) {
	m.RequestsTotal.WithLabelValues(statusClass).Inc()
	m.RequestDuration.Observe(seconds)
}

// RecordConditional records one conditional listing decision.
func (m *Metrics) RecordConditional(hit bool, rows int64) {
	if hit {
		m.ConditionalHits.Inc()
		return
	}
	m.ConditionalMiss.Inc()
	m.StreamedRows.Add(float64(rows))
}

// RecordReconcile records one reconciliation verdict.
func (m *Metrics) RecordReconcile(kind string) {
	m.ReconcileOutcomes.WithLabelValues(kind).Inc()
}

// RecordCatalogMutation records one catalog mutation.
func (m *Metrics) RecordCatalogMutation(op string) {
	m.CatalogMutations.WithLabelValues(op).Inc()
}
