// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the common pipeline labels (backend, stage, status) onto
//     Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead of
//     exposing an HTTP scrape endpoint, which fits short-lived generation runs.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the core
// pipeline.
package prompush

import (
	"fmt"

	"tabsynth/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Stage-level metrics
	stageCounter  *prometheus.CounterVec // "synth_stage_total"
	stageDuration *prometheus.SummaryVec // "synth_stage_duration_seconds" (summary)

	// Row-level and score metrics
	rowCounter *prometheus.CounterVec // "synth_rows_total"
	scoreGauge *prometheus.GaugeVec   // "synth_score"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often the run's job name from config).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tabsynth"
	}

	reg := prometheus.NewRegistry()

	// backend, stage, status are dynamic labels; the job name is the
	// Pushgateway grouping key.
	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synth_stage_total",
			Help: "Total number of pipeline stage executions, partitioned by backend, stage, and status.",
		},
		[]string{"backend", "stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "synth_stage_duration_seconds",
			Help:       "Duration of pipeline stages in seconds, partitioned by backend, stage, and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"backend", "stage", "status"},
	)

	// ROW metrics: kind (real, synthetic, written, skipped).
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synth_rows_total",
			Help: "Row-level counts per backend and kind (real, synthetic, written, etc.).",
		},
		[]string{"backend", "kind"},
	)

	// SCORE metrics: the last evaluation score per backend and metric name.
	scoreGauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "synth_score",
			Help: "Latest evaluation score per backend and metric (diagnostic/quality).",
		},
		[]string{"backend", "metric"},
	)

	if err := reg.Register(stageCounter); err != nil {
		return nil, fmt.Errorf("prompush: register stage counter: %w", err)
	}
	if err := reg.Register(stageDuration); err != nil {
		return nil, fmt.Errorf("prompush: register stage summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(scoreGauge); err != nil {
		return nil, fmt.Errorf("prompush: register score gauge: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
		rowCounter:    rowCounter,
		scoreGauge:    scoreGauge,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "synth_stage_total":
		if b.stageCounter == nil {
			return
		}
		b.stageCounter.WithLabelValues(labels["backend"], labels["stage"], labels["status"]).Add(delta)

	case "synth_rows_total":
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["backend"], labels["kind"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case "synth_stage_duration_seconds":
		if b.stageDuration == nil {
			return
		}
		b.stageDuration.WithLabelValues(labels["backend"], labels["stage"], labels["status"]).Observe(value)

	case "synth_score":
		if b.scoreGauge == nil {
			return
		}
		b.scoreGauge.WithLabelValues(labels["backend"], labels["metric"]).Set(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
