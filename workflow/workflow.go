package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/beeflow/logging"
)

// DefaultMaxSteps is the step cap applied when Options.MaxSteps is not set.
const DefaultMaxSteps = 50

// Options configures a Workflow using the functional options pattern.
type Options struct {
	// InputSchema validates the initial state. Nil disables validation.
	InputSchema *Schema

	// OutputSchema validates the final state of a successful run. Nil disables validation.
	OutputSchema *Schema

	// MaxSteps caps the number of executed steps per run. Values <= 0 select DefaultMaxSteps.
	MaxSteps int

	// Logger receives debug traces of runs and errors for failures.
	Logger logging.Logger

	// Observers are notified of every run. More can be added with Observe.
	Observers []Observer
}

// Workflow is a named step graph. A Workflow is safe for concurrent use:
// steps and observers may be added while runs are in flight, and each run
// works on a snapshot of the registry taken when it starts.
type Workflow struct {
	name   string
	input  *Schema
	output *Schema
	max    int
	logger logging.Logger

	mu        sync.RWMutex
	registry  *Registry
	observers []Observer
}

// New creates an empty workflow.
func New(name string, optFns ...func(o *Options)) *Workflow {
	opts := Options{
		MaxSteps: DefaultMaxSteps,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Workflow{
		name:      name,
		input:     opts.InputSchema,
		output:    opts.OutputSchema,
		max:       opts.MaxSteps,
		logger:    opts.Logger,
		registry:  NewRegistry(),
		observers: append([]Observer(nil), opts.Observers...),
	}
}

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// InputSchema returns the input schema, or nil.
func (w *Workflow) InputSchema() *Schema { return w.input }

// OutputSchema returns the output schema, or nil.
func (w *Workflow) OutputSchema() *Schema { return w.output }

// MaxSteps returns the effective step cap.
func (w *Workflow) MaxSteps() int { return w.max }

// AddStep registers a step. Registration order defines fallthrough.
func (w *Workflow) AddStep(name string, h Handler, opts ...StepOption) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.registry.Register(name, h, opts...); err != nil {
		if dup, ok := err.(*DuplicateStepError); ok {
			dup.Workflow = w.name
		}
		return err
	}
	return nil
}

// MustAddStep is like AddStep but panics on error. It returns w for chaining.
func (w *Workflow) MustAddStep(name string, h Handler, opts ...StepOption) *Workflow {
	if err := w.AddStep(name, h, opts...); err != nil {
		panic(err)
	}
	return w
}

// Observe registers an observer for subsequent runs.
func (w *Workflow) Observe(o Observer) {
	if o == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, o)
}

// Steps returns the registered step names in order.
func (w *Workflow) Steps() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.registry.Names()
}

// Step returns a copy of the named step definition.
func (w *Workflow) Step(name string) (Step, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.registry.Lookup(name)
	if !ok {
		return Step{}, false
	}
	cp := *s
	cp.Requires = append([]string(nil), s.Requires...)
	return cp, true
}

// RunOptions customizes a single run.
type RunOptions struct {
	// StartAt names the first step. Empty starts at the first registered step.
	StartAt string

	// RunID identifies the run in events and logs. Empty generates a UUID.
	// Observers key per-run data by it, so it must be unique among runs in flight.
	RunID string

	// Observers receive the events of this run only, after the workflow's own.
	Observers []Observer
}

// Result is the outcome of a successful run.
type Result struct {
	RunID string
	State State
	Steps []string // executed steps in order
}

type run struct {
	wf        *Workflow
	id        string
	registry  *Registry
	observers []Observer
	logger    logging.Logger
	started   time.Time
}

// Run executes the workflow from the start step until a step returns End, the
// last registered step falls through, or an error occurs.
//
// The returned error is one of *ValidationError, *UnknownStepError,
// *PreconditionError, *StepExecutionError, *MaxStepsExceededError,
// *OutputValidationError, or the context error when ctx is done between steps.
func (w *Workflow) Run(ctx context.Context, input State, optFns ...func(o *RunOptions)) (*Result, error) {
	opts := RunOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	w.mu.RLock()
	r := &run{
		wf:        w,
		id:        opts.RunID,
		registry:  w.registry.snapshot(),
		observers: append(append([]Observer(nil), w.observers...), opts.Observers...),
		logger:    logging.With(w.logger, "workflow", w.name, "run_id", opts.RunID),
		started:   time.Now(),
	}
	w.mu.RUnlock()

	return r.execute(ctx, input.Clone(), opts.StartAt)
}

func (r *run) execute(ctx context.Context, state State, start string) (*Result, error) {
	wf := r.wf
	r.logger.Debug("workflow.run.start", "start", start)
	r.notify(ctx, Event{Kind: RunStarted, State: state})

	if wf.input != nil {
		if err := wf.input.Validate(state.compact()); err != nil {
			return nil, r.fail(ctx, "", -1, &ValidationError{Workflow: wf.name, State: state.Clone(), Cause: err})
		}
	}

	current := start
	if current == "" {
		first, ok := r.registry.First()
		if !ok {
			return nil, r.fail(ctx, "", -1, &UnknownStepError{Workflow: wf.name, State: state.Clone()})
		}
		current = first
	}

	var (
		visited []string
		from    string
	)

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(ctx, current, index, fmt.Errorf("workflow %q run %s: %w", wf.name, r.id, err))
		}
		if index >= wf.max {
			return nil, r.fail(ctx, current, index, &MaxStepsExceededError{
				Workflow: wf.name, Step: current, Limit: wf.max, State: state.Clone(),
			})
		}

		step, ok := r.registry.Lookup(current)
		if !ok {
			return nil, r.fail(ctx, current, index, &UnknownStepError{
				Workflow: wf.name, Step: current, From: from, State: state.Clone(),
			})
		}

		if missing := missingFields(state, step.Requires); len(missing) > 0 {
			return nil, r.fail(ctx, current, index, &PreconditionError{
				Workflow: wf.name, Step: current, Missing: missing, State: state.Clone(),
			})
		}

		r.logger.Debug("workflow.step.start", "step", current, "index", index)
		r.notify(ctx, Event{Kind: StepStarted, Step: current, Index: index, State: state})

		began := time.Now()
		tr, err := invoke(r.stepContext(ctx, current), step, state.Clone())
		elapsed := time.Since(began)
		if err != nil {
			serr := &StepExecutionError{Workflow: wf.name, Step: current, State: state.Clone(), Cause: err}
			r.notify(ctx, Event{Kind: StepFailed, Step: current, Index: index, State: state, Err: serr, Duration: elapsed})
			return nil, r.fail(ctx, current, index, serr)
		}

		state = state.Merge(tr.Update)
		visited = append(visited, current)

		next := tr.Next
		if next == "" {
			if after, ok := r.registry.After(current); ok {
				next = after
			} else {
				next = End
			}
		}

		r.logger.Debug("workflow.step.complete", "step", current, "next", next, "duration", elapsed)
		r.notify(ctx, Event{Kind: StepCompleted, Step: current, Index: index, Next: next, State: state, Duration: elapsed})

		if next == End {
			break
		}
		from, current = current, next
	}

	last := visited[len(visited)-1]
	if wf.output != nil {
		if err := wf.output.Validate(state.compact()); err != nil {
			return nil, r.fail(ctx, last, len(visited)-1, &OutputValidationError{
				Workflow: wf.name, Step: last, State: state.Clone(), Cause: err,
			})
		}
	}

	elapsed := time.Since(r.started)
	r.logger.Debug("workflow.run.complete", "steps", len(visited), "duration", elapsed)
	r.notify(ctx, Event{Kind: RunCompleted, Step: last, Index: len(visited) - 1, State: state, Duration: elapsed})

	return &Result{RunID: r.id, State: state, Steps: visited}, nil
}

func (r *run) fail(ctx context.Context, step string, index int, err error) error {
	r.logger.Error("workflow.run.failed", "step", step, "error", err)
	st, _ := StateOf(err)
	r.notify(ctx, Event{Kind: RunFailed, Step: step, Index: index, State: st, Err: err, Duration: time.Since(r.started)})
	return err
}

// notify delivers e to every observer with its own copy of the state.
func (r *run) notify(ctx context.Context, e Event) {
	if len(r.observers) == 0 {
		return
	}
	e.RunID = r.id
	e.Workflow = r.wf.name
	e.Time = time.Now()

	for _, o := range r.observers {
		ev := e
		ev.State = e.State.Clone()
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Warn("workflow.observer.panic", "event", e.Kind.String(), "panic", p)
				}
			}()
			o.OnEvent(ctx, ev)
		}()
	}
}

// stepContext lets context observers decorate the handler's context.
func (r *run) stepContext(ctx context.Context, step string) context.Context {
	for _, o := range r.observers {
		co, ok := o.(ContextObserver)
		if !ok {
			continue
		}
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Warn("workflow.observer.panic", "event", "step_context", "panic", p)
				}
			}()
			if next := co.StepContext(ctx, r.id, step); next != nil {
				ctx = next
			}
		}()
	}
	return ctx
}

func invoke(ctx context.Context, step *Step, view State) (tr Transition, err error) {
	defer func() {
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok {
				err = fmt.Errorf("panic: %w", perr)
				return
			}
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return step.Handler(ctx, view)
}

func missingFields(state State, required []string) []string {
	var missing []string
	for _, f := range required {
		if !state.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
