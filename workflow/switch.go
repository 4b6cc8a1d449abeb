package workflow

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Route pairs a boolean expression over the state with a target step.
type Route struct {
	When string
	Next string
}

// When is shorthand for Route{When: expression, Next: next}.
func When(expression, next string) Route {
	return Route{When: expression, Next: next}
}

type compiledRoute struct {
	Route
	program *vm.Program
}

// Switch builds a handler that jumps to the first route whose expression
// evaluates to true. State fields are exposed as variables, so a route reads
// like `category == "vision"`. Missing fields evaluate to nil.
//
// When no route matches the handler jumps to fallback, or falls through when
// fallback is empty. Expressions are compiled here; syntax errors are
// returned immediately rather than at run time.
func Switch(fallback string, routes ...Route) (Handler, error) {
	compiled := make([]compiledRoute, 0, len(routes))
	for _, r := range routes {
		if r.Next == "" {
			return nil, fmt.Errorf("route %q: target step must not be empty", r.When)
		}
		program, err := expr.Compile(r.When,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
			expr.AsBool(),
		)
		if err != nil {
			return nil, fmt.Errorf("compile route %q: %w", r.When, err)
		}
		compiled = append(compiled, compiledRoute{Route: r, program: program})
	}

	return func(_ context.Context, state State) (Transition, error) {
		env := map[string]any(state)
		for _, r := range compiled {
			out, err := expr.Run(r.program, env)
			if err != nil {
				return Transition{}, fmt.Errorf("evaluate route %q: %w", r.When, err)
			}
			if matched, _ := out.(bool); matched {
				return Goto(r.Next), nil
			}
		}
		if fallback != "" {
			return Goto(fallback), nil
		}
		return Continue(), nil
	}, nil
}

// MustSwitch is like Switch but panics when a route does not compile.
func MustSwitch(fallback string, routes ...Route) Handler {
	h, err := Switch(fallback, routes...)
	if err != nil {
		panic(err)
	}
	return h
}
