package workflow

import (
	"context"
	"errors"
)

// Handler computes the transition of one step. The state passed in is a copy;
// changes to it are ignored; return them in Transition.Update instead.
type Handler func(ctx context.Context, state State) (Transition, error)

// Step is a registered step definition. Steps are immutable once registered.
type Step struct {
	Name        string
	Description string
	Requires    []string
	Handler     Handler
}

// StepOption customizes a step at registration time.
type StepOption func(s *Step)

// Requires declares fields that must be present (and non-nil) in the state
// before the step's handler may run.
func Requires(fields ...string) StepOption {
	return func(s *Step) {
		s.Requires = append(s.Requires, fields...)
	}
}

// WithDescription attaches a human readable description to a step.
func WithDescription(text string) StepOption {
	return func(s *Step) {
		s.Description = text
	}
}

// Registry is an ordered collection of steps. The registration order defines
// implicit fallthrough. Registry is not safe for concurrent mutation; Workflow
// guards its registry.
type Registry struct {
	steps []*Step
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a step. It fails with *DuplicateStepError when the name is taken.
func (r *Registry) Register(name string, h Handler, opts ...StepOption) error {
	if name == "" {
		return errors.New("step name must not be empty")
	}
	if name == End {
		return errors.New("step name " + End + " is reserved")
	}
	if h == nil {
		return errors.New("step " + name + ": handler must not be nil")
	}
	if _, ok := r.index[name]; ok {
		return &DuplicateStepError{Step: name}
	}

	s := &Step{Name: name, Handler: h}
	for _, opt := range opts {
		opt(s)
	}
	s.Requires = append([]string(nil), s.Requires...)

	r.index[name] = len(r.steps)
	r.steps = append(r.steps, s)
	return nil
}

// Lookup returns the step registered under name.
func (r *Registry) Lookup(name string) (*Step, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.steps[i], true
}

// First returns the name of the first registered step.
func (r *Registry) First() (string, bool) {
	if len(r.steps) == 0 {
		return "", false
	}
	return r.steps[0].Name, true
}

// After returns the name of the step registered right after name.
func (r *Registry) After(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok || i+1 >= len(r.steps) {
		return "", false
	}
	return r.steps[i+1].Name, true
}

// Names returns step names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

// Len returns the number of registered steps.
func (r *Registry) Len() int { return len(r.steps) }

func (r *Registry) snapshot() *Registry {
	cp := &Registry{
		steps: append([]*Step(nil), r.steps...),
		index: make(map[string]int, len(r.index)),
	}
	for k, v := range r.index {
		cp.index[k] = v
	}
	return cp
}
