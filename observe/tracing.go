package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/beeflow/workflow"
)

const instrumentationName = "github.com/hupe1980/beeflow/observe"

// Tracing records an OpenTelemetry span per run with a child span per step.
// Spans are keyed by run id so one observer can serve concurrent runs. Step
// handlers receive the step span in their context, so spans started by model
// or tool calls inside a step become its children.
type Tracing struct {
	tracer trace.Tracer

	mu   sync.Mutex
	runs map[string]*runSpans
}

type runSpans struct {
	ctx  context.Context
	run  trace.Span
	step trace.Span
}

var _ workflow.ContextObserver = (*Tracing)(nil)

// NewTracing creates a tracing observer. A nil provider uses the global one.
func NewTracing(tp trace.TracerProvider) *Tracing {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer: tp.Tracer(instrumentationName),
		runs:   make(map[string]*runSpans),
	}
}

// StepContext implements workflow.ContextObserver.
func (t *Tracing) StepContext(ctx context.Context, runID, _ string) context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()

	rs, ok := t.runs[runID]
	if !ok || rs.step == nil {
		return ctx
	}
	return trace.ContextWithSpan(ctx, rs.step)
}

// OnEvent implements workflow.Observer.
func (t *Tracing) OnEvent(ctx context.Context, e workflow.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Kind {
	case workflow.RunStarted:
		runCtx, span := t.tracer.Start(ctx, "workflow "+e.Workflow,
			trace.WithTimestamp(e.Time),
			trace.WithAttributes(
				attribute.String("workflow.name", e.Workflow),
				attribute.String("workflow.run_id", e.RunID),
			),
		)
		t.runs[e.RunID] = &runSpans{ctx: runCtx, run: span}

	case workflow.StepStarted:
		rs, ok := t.runs[e.RunID]
		if !ok {
			return
		}
		_, rs.step = t.tracer.Start(rs.ctx, "step "+e.Step,
			trace.WithTimestamp(e.Time),
			trace.WithAttributes(
				attribute.String("workflow.step", e.Step),
				attribute.Int("workflow.step.index", e.Index),
			),
		)

	case workflow.StepCompleted, workflow.StepFailed:
		rs, ok := t.runs[e.RunID]
		if !ok || rs.step == nil {
			return
		}
		if e.Kind == workflow.StepFailed {
			rs.step.RecordError(e.Err)
			rs.step.SetStatus(codes.Error, e.Err.Error())
		} else {
			rs.step.SetAttributes(attribute.String("workflow.next", e.Next))
			rs.step.SetStatus(codes.Ok, "")
		}
		rs.step.End(trace.WithTimestamp(e.Time))
		rs.step = nil

	case workflow.RunCompleted, workflow.RunFailed:
		rs, ok := t.runs[e.RunID]
		if !ok {
			return
		}
		delete(t.runs, e.RunID)

		if rs.step != nil {
			rs.step.End(trace.WithTimestamp(e.Time))
		}
		if e.Step != "" {
			rs.run.SetAttributes(attribute.String("workflow.last_step", e.Step))
		}
		if e.Kind == workflow.RunFailed && e.Err != nil {
			rs.run.RecordError(e.Err)
			rs.run.SetStatus(codes.Error, e.Err.Error())
		} else {
			rs.run.SetStatus(codes.Ok, "")
		}
		rs.run.End(trace.WithTimestamp(e.Time))
	}
}
