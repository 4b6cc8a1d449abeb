// Package beeflow provides a small façade over named workflows. Most
// applications interact with it by:
//  1. Creating a Runtime via New()
//  2. Registering one or more workflows
//  3. Running them by name (Run), from code, the CLI or the HTTP server
//
// The Runtime bounds the number of runs in flight and passes shared observers
// (logging, tracing, metrics) to every run it starts. Registered workflows are
// not modified, so one workflow may be registered in several runtimes.
package beeflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/beeflow/logging"
	"github.com/hupe1980/beeflow/workflow"
)

// ErrWorkflowNotFound is returned when running an unregistered workflow.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrDuplicateWorkflow is returned when a name is registered twice.
var ErrDuplicateWorkflow = errors.New("workflow already registered")

// Options configures the Runtime.
type Options struct {
	// MaxConcurrentRuns limits the number of runs executing simultaneously.
	// Callers beyond the limit wait for a slot or for their context to end.
	// Set to 0 for unlimited.
	MaxConcurrentRuns int

	// Observers receive the events of every run started through the Runtime.
	Observers []workflow.Observer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Runtime is a registry of named workflows.
type Runtime struct {
	opts Options
	sem  chan struct{}

	mu        sync.RWMutex
	workflows map[string]*workflow.Workflow
}

// New creates a Runtime.
func New(optFns ...func(o *Options)) *Runtime {
	opts := Options{
		MaxConcurrentRuns: 10,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	rt := &Runtime{opts: opts, workflows: make(map[string]*workflow.Workflow)}
	if opts.MaxConcurrentRuns > 0 {
		rt.sem = make(chan struct{}, opts.MaxConcurrentRuns)
	}
	return rt
}

// Register adds workflows under their names.
func (rt *Runtime) Register(wfs ...*workflow.Workflow) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for _, wf := range wfs {
		if _, ok := rt.workflows[wf.Name()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateWorkflow, wf.Name())
		}
		rt.workflows[wf.Name()] = wf
		rt.opts.Logger.Debug("runtime.register", "workflow", wf.Name(), "steps", len(wf.Steps()))
	}
	return nil
}

// Workflow returns the workflow registered under name.
func (rt *Runtime) Workflow(name string) (*workflow.Workflow, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	wf, ok := rt.workflows[name]
	return wf, ok
}

// Names returns the registered workflow names in sorted order.
func (rt *Runtime) Names() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	names := make([]string, 0, len(rt.workflows))
	for n := range rt.workflows {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes the named workflow. It blocks while MaxConcurrentRuns runs are
// in flight.
func (rt *Runtime) Run(ctx context.Context, name string, input workflow.State, optFns ...func(o *workflow.RunOptions)) (*workflow.Result, error) {
	wf, ok := rt.Workflow(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, name)
	}

	if rt.sem != nil {
		select {
		case rt.sem <- struct{}{}:
			defer func() { <-rt.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return wf.Run(ctx, input, append(optFns[:len(optFns):len(optFns)], func(o *workflow.RunOptions) {
		o.Observers = append(o.Observers, rt.opts.Observers...)
	})...)
}
