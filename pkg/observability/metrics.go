// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the zettel service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for CRUD and search
// latencies, ranging from 5ms to 10s.
var APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route group.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zettel_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route group.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zettel_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight gauges HTTP requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zettel_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// NoteOperationsTotal counts note service operations by name and outcome.
	NoteOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zettel_note_operations_total",
			Help: "Note operations",
		},
		[]string{"operation", "status"},
	)

	// SearchesTotal counts vector searches by the backend that served them.
	// Backends: "native" (database index), "fallback" (brute force after a
	// native failure or without native support), "memory" (memory store).
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zettel_searches_total",
			Help: "Vector searches by serving backend",
		},
		[]string{"backend"},
	)

	// VectorFallbacksTotal counts native searches that degraded to the
	// brute-force path after a query failure.
	VectorFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zettel_vector_fallbacks_total",
			Help: "Native vector searches degraded to brute force",
		},
	)

	// EmbeddingsComputed counts embedding vectors computed, lazily or eagerly.
	EmbeddingsComputed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zettel_embeddings_computed_total",
			Help: "Embedding vectors computed",
		},
	)

	// EmbeddingFailures counts embedding computations that failed.
	EmbeddingFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zettel_embedding_failures_total",
			Help: "Embedding computations that failed",
		},
	)

	// CacheHitsTotal counts note list cache hits.
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zettel_cache_hits_total",
			Help: "Note list cache hits",
		},
	)

	// CacheMissesTotal counts note list cache misses.
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zettel_cache_misses_total",
			Help: "Note list cache misses",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zettel_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		NoteOperationsTotal,
		SearchesTotal,
		VectorFallbacksTotal,
		EmbeddingsComputed,
		EmbeddingFailures,
		CacheHitsTotal,
		CacheMissesTotal,
		RateLimitRejectedTotal,
	)
}
