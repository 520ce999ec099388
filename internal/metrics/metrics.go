// Package metrics exposes Prometheus instrumentation for workflow runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogpilot"

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Workflow runs by final status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "run_duration_seconds",
			Help:      "End-to-end workflow run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 180, 300, 600},
		},
	)

	StepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "step_failures_total",
			Help:      "Step failures by step name",
		},
		[]string{"step"},
	)

	GenerationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "retries_total",
			Help:      "Content generation attempts beyond the first",
		},
	)

	ValidationIssues = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "validation_issues",
			Help:      "Validator issue count per accepted article",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)
)

// ObserveRun records the final status and duration of one workflow run.
func ObserveRun(status string, seconds float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(seconds)
}
