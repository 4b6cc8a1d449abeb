package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/beeflow/workflow"
)

// Recorder is a workflow.Observer that keeps every event it receives.
// Example:
//
//	rec := &Recorder{}
//	wf.Observe(rec)
//	_, _ = wf.Run(ctx, input)
//	steps := rec.Steps(workflow.StepStarted)
type Recorder struct {
	mu     sync.Mutex
	events []workflow.Event
}

var _ workflow.Observer = (*Recorder)(nil)

// OnEvent records e.
func (r *Recorder) OnEvent(_ context.Context, e workflow.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []workflow.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workflow.Event(nil), r.events...)
}

// Kinds returns the kinds of all recorded events in order.
func (r *Recorder) Kinds() []workflow.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]workflow.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Steps returns the step names of events with the given kind.
func (r *Recorder) Steps(kind workflow.EventKind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e.Step)
		}
	}
	return out
}

// Last returns the most recent event of the given kind.
func (r *Recorder) Last(kind workflow.EventKind) (workflow.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return workflow.Event{}, false
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
