// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package metrics provides Prometheus instrumentation for the scraper,
// the reconciliation pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scraper metrics

	FetchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefuta_fetch_results_total",
			Help: "Upstream detail-page fetch results by outcome",
		},
		[]string{"outcome"}, // "found", "not_found", "transient"
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokefuta_fetch_duration_seconds",
			Help:    "Duration of upstream detail-page fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pokefuta_scraper_circuit_breaker_state",
			Help: "Scraper circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Reconciliation metrics

	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefuta_transitions_total",
			Help: "Record lifecycle transitions classified per run",
		},
		[]string{"kind"}, // "added", "updated", "deleted", "resurrected"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokefuta_run_duration_seconds",
			Help:    "Duration of full reconciliation runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefuta_runs_total",
			Help: "Reconciliation runs by result",
		},
		[]string{"result"}, // "success", "canceled", "persist_error"
	)

	// Dataset metrics

	RecordsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pokefuta_records",
			Help: "Records in the dataset by status",
		},
		[]string{"status"}, // "active", "deleted"
	)

	CorruptLinesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefuta_corrupt_lines_skipped_total",
			Help: "Dataset lines skipped on load because they failed to parse",
		},
	)

	// HTTP API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// SetRecordCounts updates the per-status dataset gauges after a load or a
// run commits.
func SetRecordCounts(active, deleted int) {
	RecordsByStatus.WithLabelValues("active").Set(float64(active))
	RecordsByStatus.WithLabelValues("deleted").Set(float64(deleted))
}
