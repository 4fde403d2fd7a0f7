// Package metrics provides Prometheus metrics for noc-stats.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkbooksLoaded tracks workbook loads by outcome
	WorkbooksLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noc",
			Subsystem: "ingest",
			Name:      "workbooks_total",
			Help:      "Total number of workbooks loaded by outcome",
		},
		[]string{"outcome"},
	)

	// RowsNormalized tracks rows produced per normalized table
	RowsNormalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noc",
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Total number of rows produced per normalized table",
		},
		[]string{"table"},
	)

	// ParseDegradations tracks cells that failed to parse and became null
	ParseDegradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noc",
			Subsystem: "ingest",
			Name:      "parse_degradations_total",
			Help:      "Total number of cells that could not be parsed",
		},
		[]string{"table", "column"},
	)

	// NormalizeDuration tracks the time spent normalizing one workbook
	NormalizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "noc",
			Subsystem: "ingest",
			Name:      "normalize_duration_seconds",
			Help:      "Duration of workbook normalization in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// SessionsActive tracks sessions held by the store
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "noc",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently cached",
		},
	)

	// HTTPRequestsTotal tracks API requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"route", "status_code"},
	)
)
