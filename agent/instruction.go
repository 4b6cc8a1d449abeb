package agent

import (
	"context"

	"github.com/hupe1980/beeflow/internal/prompt"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from run variables, environment, etc.
type Provider interface {
	Instruction(ctx context.Context, vars map[string]any) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, vars map[string]any) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, vars map[string]any) (string, error) {
	return f(ctx, vars)
}

// Instruction represents either a static instruction string or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, vars map[string]any) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// NewInstructionFromTemplate creates an Instruction rendered from a text
// template over the run variables, e.g. "You write about {{.topic}}.".
func NewInstructionFromTemplate(text string) (Instruction, error) {
	tmpl, err := prompt.Parse("instruction", text)
	if err != nil {
		return Instruction{}, err
	}
	return NewInstructionFromFunc(func(_ context.Context, vars map[string]any) (string, error) {
		return tmpl.Render(vars)
	}), nil
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ctx context.Context, vars map[string]any) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, vars)
	}
	return i.text, nil
}
