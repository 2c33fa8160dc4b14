// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package metrics exposes Prometheus instrumentation for the prediction
// pipeline: feature cache efficiency, precomputation throughput, hybrid
// decision latency, and HTTP endpoint metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feature cache metrics
	FeatureCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_cache_hits_total",
			Help: "Total number of feature cache hits",
		},
	)

	FeatureCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_cache_misses_total",
			Help: "Total number of feature cache misses",
		},
	)

	FeatureCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_cache_invalidations_total",
			Help: "Total number of wholesale cache invalidations (config fingerprint changes and explicit clears)",
		},
	)

	FeatureCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feature_cache_entries",
			Help: "Current number of cached feature vectors",
		},
	)

	FeatureGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feature_generation_duration_seconds",
			Help:    "Duration of single feature vector generation",
			Buckets: prometheus.DefBuckets,
		},
	)

	FeatureGenerationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_generation_errors_total",
			Help: "Total number of feature generation failures",
		},
	)

	// Precomputation metrics
	PrecomputeTasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precompute_tasks_total",
			Help: "Total number of precomputation tasks by outcome",
		},
		[]string{"outcome"}, // "stored", "skipped", "failed"
	)

	PrecomputeRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "precompute_runs_total",
			Help: "Total number of precomputation runs started",
		},
	)

	// Hybrid controller metrics
	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prediction_duration_seconds",
			Help:    "End-to-end duration of prediction requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"}, // "ml", "rule", "hybrid"
	)

	PredictionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_fallbacks_total",
			Help: "Total number of rule-engine fallbacks by reason",
		},
		[]string{"reason"}, // "low_confidence", "predictor_error", "compliance", "breaker_open"
	)

	PredictionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of terminal prediction failures (rule engine unavailable)",
		},
	)

	// API metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of in-flight HTTP requests",
		},
	)
)

// ObserveHTTPRequest records one completed HTTP request.
func ObserveHTTPRequest(path, method string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObservePrediction records one completed prediction by decision method.
func ObservePrediction(method string, duration time.Duration) {
	PredictionDuration.WithLabelValues(method).Observe(duration.Seconds())
}
