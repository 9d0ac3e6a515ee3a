// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_api_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Relationship Metrics
	RelationshipOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_relationship_operations_total",
			Help: "Relationship operations by operation and outcome (applied, noop, error)",
		},
		[]string{"operation", "outcome"},
	)

	// Provider Metrics
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_provider_request_duration_seconds",
			Help:    "Duration of calls to external movie providers",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "result"},
	)

	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_search_cache_hits_total",
			Help: "Total number of movie search cache hits",
		},
	)

	SearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinematch_search_cache_misses_total",
			Help: "Total number of movie search cache misses",
		},
	)

	// Event Stream Metrics
	EventStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_event_streams",
			Help: "Number of open server-sent event streams",
		},
	)
)

// Outcome labels for RelationshipOps.
const (
	OutcomeApplied = "applied"
	OutcomeNoOp    = "noop"
	OutcomeError   = "error"
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRelationship counts one relationship operation.
func RecordRelationship(operation, outcome string) {
	RelationshipOps.WithLabelValues(operation, outcome).Inc()
}

// RecordProviderCall records the latency of an outbound provider call.
func RecordProviderCall(provider string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderRequestDuration.WithLabelValues(provider, result).Observe(duration.Seconds())
}

// RecordSearchCache records a search cache lookup.
func RecordSearchCache(hit bool) {
	if hit {
		SearchCacheHits.Inc()
	} else {
		SearchCacheMisses.Inc()
	}
}
