package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// QueriesTotal tracks the total number of table builder queries processed
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablebuilder_queries_total",
			Help: "Total number of table builder queries processed",
		},
		[]string{"status"}, // status: success, empty, failed
	)

	// QueryDuration measures end-to-end query duration in seconds
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablebuilder_query_duration_seconds",
			Help:    "Table builder query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"status"},
	)

	// ObservationsSelected tracks how many observation ids each selection matched
	ObservationsSelected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tablebuilder_observations_selected",
			Help:    "Number of observation ids matched per selection query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~260k
		},
	)

	// CacheRequestsTotal tracks data block cache reads by outcome
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablebuilder_cache_requests_total",
			Help: "Data block cache reads by outcome",
		},
		[]string{"result"}, // result: hit, miss, corrupt, error
	)

	// CachePersistFailuresTotal counts best-effort cache writes that failed
	CachePersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tablebuilder_cache_persist_failures_total",
			Help: "Best-effort cache artifact writes that failed",
		},
	)
)
