// Package holonmetrics exposes Prometheus instrumentation for the holon
// engine: pool sizes, cache hit/miss rates, commit throughput, and dance
// dispatch outcomes.
package holonmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pool metrics
	NurserySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "holon_nursery_size",
			Help: "Number of staged holons in the most recently updated transaction nursery",
		},
	)

	TransientPoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "holon_transient_pool_size",
			Help: "Number of transient holons in the most recently updated transaction pool",
		},
	)

	OpenTransactions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "holon_open_transactions",
			Help: "Number of transaction contexts currently open",
		},
	)

	// Cache metrics
	HolonCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holon_cache_hits_total",
			Help: "Total HolonCache lookups served without a persistence fetch",
		},
	)

	HolonCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holon_cache_misses_total",
			Help: "Total HolonCache lookups that triggered fetch_holon_internal",
		},
	)

	RelationshipCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holon_relationship_cache_hits_total",
			Help: "Total RelationshipCache lookups served without a persistence fetch",
		},
	)

	RelationshipCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holon_relationship_cache_misses_total",
			Help: "Total RelationshipCache lookups that triggered fetch_related_holons",
		},
	)

	// Commit pipeline metrics
	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "holon_commit_duration_seconds",
			Help:    "Time taken to run the commit pipeline for one transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	HolonsCommittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holon_holons_committed_total",
			Help: "Total staged holons persisted by the commit pipeline",
		},
	)

	LinksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "holon_links_created_total",
			Help: "Total relationship links materialized by the commit pipeline",
		},
	)

	CommitErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holon_commit_errors_total",
			Help: "Total commit pipeline errors by kind",
		},
		[]string{"kind"},
	)

	// Dance dispatch metrics
	DanceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holon_dance_requests_total",
			Help: "Total dance requests dispatched by name and status",
		},
		[]string{"dance_name", "status"},
	)

	DanceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "holon_dance_request_duration_seconds",
			Help:    "Dance request handling duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dance_name"},
	)

	// Raft-backed store metrics
	StoreRaftIsLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "holon_store_raft_is_leader",
			Help: "Whether this holon store replica is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	StoreRaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "holon_store_raft_apply_duration_seconds",
			Help:    "Time taken to apply one Raft log entry to the holon store FSM",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		NurserySize,
		TransientPoolSize,
		OpenTransactions,
		HolonCacheHits,
		HolonCacheMisses,
		RelationshipCacheHits,
		RelationshipCacheMisses,
		CommitDuration,
		HolonsCommittedTotal,
		LinksCreatedTotal,
		CommitErrorsTotal,
		DanceRequestsTotal,
		DanceRequestDuration,
		StoreRaftIsLeader,
		StoreRaftApplyDuration,
	)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
