// Package metrics exposes the Prometheus collectors shared across the
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "powerpulse"

var (
	// RequestsTotal counts API requests by path, method, and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests by path, method, and status",
		},
		[]string{"path", "method", "status"},
	)

	// RequestDuration observes API request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
		},
		[]string{"path"},
	)

	// ReadingsLoaded reports the row count of the last successful ingest.
	ReadingsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_readings_loaded",
			Help:      "Number of readings loaded by the last ingest cycle",
		},
	)

	// IngestCycles counts ingest cycles by outcome.
	IngestCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_cycles_total",
			Help:      "Total number of ingest cycles by outcome",
		},
		[]string{"outcome"}, // "ok", "skipped", "error"
	)

	// CollaboratorFailures counts degraded external calls by collaborator.
	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Total number of failed external collaborator calls",
		},
		[]string{"collaborator"}, // "weather", "coach"
	)

	// OfflineAlerts counts dispatched offline-device push notifications.
	OfflineAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_alerts_total",
			Help:      "Total number of offline-device alerts dispatched",
		},
	)
)
