// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_dispatches_completed_total",
			Help: "Total number of dispatches the automation worker accepted",
		},
		[]string{"task_type"},
	)

	DispatchesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_dispatches_failed_total",
			Help: "Total number of dispatches that failed",
		},
		[]string{"task_type", "error_code"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apply_dispatch_duration_seconds",
			Help:    "Duration of a single dispatch in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 180, 300},
		},
		[]string{"task_type"},
	)

	DispatchesActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "apply_dispatches_active",
			Help: "Number of in-flight dispatches",
		},
		[]string{"task_type"},
	)

	BulkItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_bulk_items_total",
			Help: "Bulk items processed, by outcome",
		},
		[]string{"outcome"},
	)

	TailoringCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_tailoring_calls_total",
			Help: "Text-generation calls made for bullet tailoring, by result",
		},
		[]string{"provider", "result"},
	)

	ResultLogWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apply_result_log_write_failures_total",
			Help: "Result log appends that failed and were dropped",
		},
		[]string{"backend"},
	)
)
