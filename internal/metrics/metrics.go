// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

// Package metrics registers the Prometheus instruments used across Crumb.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crumb_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crumb_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Place-search provider metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_provider_requests_total",
			Help: "Provider search calls by outcome",
		},
		[]string{"provider", "outcome"}, // ok, unavailable, rejected, circuit_open, rate_limited
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crumb_provider_request_duration_seconds",
			Help:    "Provider search latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
		[]string{"provider"},
	)

	ProviderCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crumb_provider_candidates",
			Help:    "Number of candidates returned per provider call",
			Buckets: []float64{0, 1, 5, 10, 15, 20, 40, 60},
		},
		[]string{"provider"},
	)

	ProviderCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_provider_cache_hits_total",
			Help: "Provider result cache hits",
		},
		[]string{"provider"},
	)

	ProviderCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_provider_cache_misses_total",
			Help: "Provider result cache misses",
		},
		[]string{"provider"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crumb_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_circuit_breaker_requests_total",
			Help: "Requests through circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Aggregation metrics
	AggregateDuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crumb_aggregate_duplicates_dropped_total",
			Help: "Candidates dropped as cross-provider duplicates",
		},
	)

	// Recommendation service metrics
	RecommendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_recommend_attempts_total",
			Help: "Recommendation service HTTP attempts by result",
		},
		[]string{"result"}, // ok, unavailable, rejected
	)

	RecommendOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_recommend_requests_total",
			Help: "Recommendation fetches by final outcome",
		},
		[]string{"outcome"}, // ok, exhausted, rejected, canceled
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crumb_recommend_duration_seconds",
			Help:    "Total recommendation fetch time including retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	// Search history metrics
	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_history_writes_total",
			Help: "Search history writes by outcome",
		},
		[]string{"outcome"}, // ok, failed, spooled, dropped, replayed
	)

	HistoryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crumb_history_queue_depth",
			Help: "Search history records waiting in the async queue",
		},
	)

	SpoolPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crumb_history_spool_pending",
			Help: "Failed history writes waiting in the retry spool",
		},
	)

	// Identity resolution metrics
	IdentityResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crumb_identity_resolutions_total",
			Help: "Bearer credential resolutions by mode and result",
		},
		[]string{"mode", "result"}, // ok, cached, rejected, error
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordProviderCall records latency, outcome and result size of a provider call.
func RecordProviderCall(provider, outcome string, duration time.Duration, candidates int) {
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
	ProviderCandidates.WithLabelValues(provider).Observe(float64(candidates))
}

// RecordProviderCache records a result cache lookup.
func RecordProviderCache(provider string, hit bool) {
	if hit {
		ProviderCacheHits.WithLabelValues(provider).Inc()
		return
	}
	ProviderCacheMisses.WithLabelValues(provider).Inc()
}

// RecordRecommendFetch records the final outcome of a recommendation fetch.
func RecordRecommendFetch(outcome string, duration time.Duration) {
	RecommendOutcomes.WithLabelValues(outcome).Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordHistoryWrite records a search history write outcome.
func RecordHistoryWrite(outcome string) {
	HistoryWrites.WithLabelValues(outcome).Inc()
}
