package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is. Every typed error below matches exactly one of them.
var (
	ErrValidation       = errors.New("input validation failed")
	ErrOutputValidation = errors.New("output validation failed")
	ErrDuplicateStep    = errors.New("duplicate step")
	ErrUnknownStep      = errors.New("unknown step")
	ErrPrecondition     = errors.New("step precondition failed")
	ErrStepExecution    = errors.New("step execution failed")
	ErrMaxStepsExceeded = errors.New("max steps exceeded")
)

// ValidationError reports an initial state that does not satisfy the input schema.
type ValidationError struct {
	Workflow string
	State    State
	Cause    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workflow %q: invalid input: %v", e.Workflow, e.Cause)
}

func (e *ValidationError) Unwrap() error        { return e.Cause }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OutputValidationError reports a final state that does not satisfy the output schema.
type OutputValidationError struct {
	Workflow string
	Step     string // last executed step
	State    State
	Cause    error
}

func (e *OutputValidationError) Error() string {
	return fmt.Sprintf("workflow %q: invalid output after step %q: %v", e.Workflow, e.Step, e.Cause)
}

func (e *OutputValidationError) Unwrap() error        { return e.Cause }
func (e *OutputValidationError) Is(target error) bool { return target == ErrOutputValidation }

// DuplicateStepError reports a second registration under an existing name.
type DuplicateStepError struct {
	Workflow string
	Step     string
}

func (e *DuplicateStepError) Error() string {
	if e.Workflow == "" {
		return fmt.Sprintf("step %q already registered", e.Step)
	}
	return fmt.Sprintf("workflow %q: step %q already registered", e.Workflow, e.Step)
}

func (e *DuplicateStepError) Is(target error) bool { return target == ErrDuplicateStep }

// UnknownStepError reports a transition (or start step) naming no registered step.
type UnknownStepError struct {
	Workflow string
	Step     string
	From     string // step that produced the transition, empty at start
	State    State
}

func (e *UnknownStepError) Error() string {
	switch {
	case e.Step == "":
		return fmt.Sprintf("workflow %q: no steps registered", e.Workflow)
	case e.From == "":
		return fmt.Sprintf("workflow %q: unknown start step %q", e.Workflow, e.Step)
	default:
		return fmt.Sprintf("workflow %q: step %q transitioned to unknown step %q", e.Workflow, e.From, e.Step)
	}
}

func (e *UnknownStepError) Is(target error) bool { return target == ErrUnknownStep }

// PreconditionError reports required fields missing when a step was about to run.
type PreconditionError struct {
	Workflow string
	Step     string
	Missing  []string
	State    State
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("workflow %q: step %q requires missing fields: %s",
		e.Workflow, e.Step, strings.Join(e.Missing, ", "))
}

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// StepExecutionError wraps an error returned (or a panic raised) by a handler.
type StepExecutionError struct {
	Workflow string
	Step     string
	State    State
	Cause    error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("workflow %q: step %q failed: %v", e.Workflow, e.Step, e.Cause)
}

func (e *StepExecutionError) Unwrap() error        { return e.Cause }
func (e *StepExecutionError) Is(target error) bool { return target == ErrStepExecution }

// MaxStepsExceededError reports a run that hit the step cap.
type MaxStepsExceededError struct {
	Workflow string
	Step     string // step that would have run next
	Limit    int
	State    State
}

func (e *MaxStepsExceededError) Error() string {
	return fmt.Sprintf("workflow %q: exceeded %d steps before step %q", e.Workflow, e.Limit, e.Step)
}

func (e *MaxStepsExceededError) Is(target error) bool { return target == ErrMaxStepsExceeded }

// StateOf returns the state snapshot carried by a workflow error, if any.
func StateOf(err error) (State, bool) {
	var (
		ve *ValidationError
		oe *OutputValidationError
		ue *UnknownStepError
		pe *PreconditionError
		se *StepExecutionError
		me *MaxStepsExceededError
	)
	switch {
	case errors.As(err, &se):
		return se.State, true
	case errors.As(err, &pe):
		return pe.State, true
	case errors.As(err, &oe):
		return oe.State, true
	case errors.As(err, &ue):
		return ue.State, true
	case errors.As(err, &me):
		return me.State, true
	case errors.As(err, &ve):
		return ve.State, true
	}
	return nil, false
}
