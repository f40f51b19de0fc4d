// Vitrine - Home-Screen Shelf Curation Service
// Copyright 2026 Solstad Media
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/solstad/vitrine

// Package metrics provides Prometheus instrumentation for the curation
// layer: selection cache efficiency, regeneration outcomes and latency,
// fingerprint change detection, merge sizes, and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Selection cache metrics
	ShelfCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_shelf_cache_hits_total",
			Help: "Daily selection records served from the persisted store",
		},
		[]string{"shelf"},
	)

	ShelfCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_shelf_cache_misses_total",
			Help: "Daily selection lookups that required regeneration",
		},
		[]string{"shelf"},
	)

	ShelfRegenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_shelf_regenerations_total",
			Help: "Shelf regeneration attempts by outcome",
		},
		[]string{"shelf", "outcome"}, // outcome: ok, unavailable, no_candidate, error
	)

	ShelfRegenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitrine_shelf_regeneration_duration_seconds",
			Help:    "Duration of shelf regeneration including remote queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"shelf"},
	)

	// Fingerprint tracker metrics
	FingerprintChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_fingerprint_changes_total",
			Help: "Collection signature changes detected",
		},
	)

	FingerprintRankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitrine_fingerprint_ranking_duration_seconds",
			Help:    "Duration of one most-recently-updated ranking pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	FingerprintCandidateFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_fingerprint_candidate_failures_total",
			Help: "Candidates excluded from a ranking pass by fetch failure",
		},
	)

	// Merge metrics
	MergeOutputSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitrine_merge_output_size",
			Help:    "De-duplicated entry count produced by cross-source merges",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// Store metrics
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_store_errors_total",
			Help: "Persisted state store failures by operation",
		},
		[]string{"operation"},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitrine_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObserveRegeneration records one regeneration attempt.
func ObserveRegeneration(shelf, outcome string, duration time.Duration) {
	ShelfRegenerations.WithLabelValues(shelf, outcome).Inc()
	ShelfRegenerationDuration.WithLabelValues(shelf).Observe(duration.Seconds())
}
