// Package metrics exports run statistics in the Prometheus text format.
//
// A Recorder is a harness.Observer. It counts every recorded test by suite
// and outcome label, observes invocation durations, and sums stress worker
// rounds. Metrics live on the Recorder's own registry, never the default
// one, so several runs in one process do not collide.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/optharness/internal/harness"
	"github.com/roach88/optharness/internal/invoke"
)

const namespace = "optharness"

// Recorder collects run metrics.
type Recorder struct {
	registry *prometheus.Registry

	// TestsTotal counts executed tests by suite and outcome
	// (success, InvocationFailure, AccessDenied, InvalidArgument).
	TestsTotal *prometheus.CounterVec

	// TestDuration observes invocation wall time per suite.
	TestDuration *prometheus.HistogramVec

	// StressRoundsTotal counts stress worker rounds per suite.
	StressRoundsTotal *prometheus.CounterVec

	// RunsTotal counts finished runs per suite.
	RunsTotal *prometheus.CounterVec
}

var _ harness.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		TestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tests_total",
				Help:      "Executed tests by suite and outcome",
			},
			[]string{"suite", "outcome"},
		),
		TestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "test_duration_seconds",
				Help:      "Invocation wall time per test",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us .. ~26s
			},
			[]string{"suite"},
		),
		StressRoundsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stress_rounds_total",
				Help:      "Allocation rounds completed by stress workers",
			},
			[]string{"suite"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished runs by suite",
			},
			[]string{"suite"},
		),
	}
}

// Registry returns the registry holding the Recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) RunStarted(context.Context, harness.RunInfo) error {
	return nil
}

func (r *Recorder) RecordFinished(_ context.Context, _ string, rec harness.Record) error {
	r.TestsTotal.WithLabelValues(rec.Suite, invoke.Label(rec.Outcome)).Inc()
	r.TestDuration.WithLabelValues(rec.Suite).Observe(rec.Duration.Seconds())
	if rec.Stressed {
		r.StressRoundsTotal.WithLabelValues(rec.Suite).Add(float64(rec.StressRounds))
	}
	return nil
}

func (r *Recorder) RunFinished(_ context.Context, result *harness.RunResult) error {
	r.RunsTotal.WithLabelValues(result.Suite).Inc()
	return nil
}

// WriteTextfile writes every metric to path in the text exposition format,
// atomically, for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
