package workflow

import (
	"context"
	"time"
)

// EventKind identifies a run or step boundary.
type EventKind int

const (
	RunStarted EventKind = iota
	StepStarted
	StepCompleted
	StepFailed
	RunCompleted
	RunFailed
)

func (k EventKind) String() string {
	switch k {
	case RunStarted:
		return "run_started"
	case StepStarted:
		return "step_started"
	case StepCompleted:
		return "step_completed"
	case StepFailed:
		return "step_failed"
	case RunCompleted:
		return "run_completed"
	case RunFailed:
		return "run_failed"
	default:
		return "unknown"
	}
}

// Event is delivered to observers at run and step boundaries.
//
// State is a private copy for each observer. For StepStarted it is the state
// the step will see; for StepCompleted it already includes the step's update.
type Event struct {
	Kind     EventKind
	RunID    string
	Workflow string
	Step     string
	Index    int // zero based position of the step within the run
	Next     string
	State    State
	Err      error
	Duration time.Duration // step duration for step events, run duration for run end events
	Time     time.Time
}

// Observer is notified synchronously by the executor. Observers must be fast;
// a panicking observer is recovered and logged without affecting the run.
type Observer interface {
	OnEvent(ctx context.Context, e Event)
}

// ContextObserver is an Observer that also derives the context handed to each
// step handler. It is called after StepStarted has been delivered.
type ContextObserver interface {
	Observer
	StepContext(ctx context.Context, runID, step string) context.Context
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, e Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(ctx context.Context, e Event) { f(ctx, e) }

// StepObserver returns an observer invoked with the step name and state at
// the start of every step.
func StepObserver(fn func(step string, state State)) Observer {
	return ObserverFunc(func(_ context.Context, e Event) {
		if e.Kind == StepStarted {
			fn(e.Step, e.State)
		}
	})
}
