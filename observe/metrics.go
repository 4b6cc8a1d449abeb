package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/beeflow/workflow"
)

// Metrics exports Prometheus counters and histograms for runs and steps.
type Metrics struct {
	runs         *prometheus.CounterVec
	steps        *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	stepDuration *prometheus.HistogramVec
	inflight     *prometheus.GaugeVec
}

var _ workflow.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beeflow_workflow_runs_total",
				Help: "Total number of finished workflow runs",
			},
			[]string{"workflow", "status"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beeflow_workflow_steps_total",
				Help: "Total number of executed workflow steps",
			},
			[]string{"workflow", "step", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beeflow_workflow_run_duration_seconds",
				Help:    "Duration of workflow runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beeflow_workflow_step_duration_seconds",
				Help:    "Duration of workflow step handlers",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow", "step"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "beeflow_workflow_runs_inflight",
				Help: "Number of workflow runs currently executing",
			},
			[]string{"workflow"},
		),
	}

	for _, c := range []prometheus.Collector{m.runs, m.steps, m.runDuration, m.stepDuration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNewMetrics is like NewMetrics but panics on registration errors.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// OnEvent implements workflow.Observer.
func (m *Metrics) OnEvent(_ context.Context, e workflow.Event) {
	switch e.Kind {
	case workflow.RunStarted:
		m.inflight.WithLabelValues(e.Workflow).Inc()
	case workflow.StepCompleted:
		m.steps.WithLabelValues(e.Workflow, e.Step, "ok").Inc()
		m.stepDuration.WithLabelValues(e.Workflow, e.Step).Observe(e.Duration.Seconds())
	case workflow.StepFailed:
		m.steps.WithLabelValues(e.Workflow, e.Step, "error").Inc()
		m.stepDuration.WithLabelValues(e.Workflow, e.Step).Observe(e.Duration.Seconds())
	case workflow.RunCompleted:
		m.inflight.WithLabelValues(e.Workflow).Dec()
		m.runs.WithLabelValues(e.Workflow, "ok").Inc()
		m.runDuration.WithLabelValues(e.Workflow).Observe(e.Duration.Seconds())
	case workflow.RunFailed:
		m.inflight.WithLabelValues(e.Workflow).Dec()
		m.runs.WithLabelValues(e.Workflow, "error").Inc()
		m.runDuration.WithLabelValues(e.Workflow).Observe(e.Duration.Seconds())
	}
}
