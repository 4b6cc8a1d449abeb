// Package workflow implements a step-graph executor.
//
// A Workflow is an ordered registry of named steps. Each step receives a
// read-only view of the run state and returns a Transition: a partial state
// update, the name of the next step, the terminal marker End, or a
// combination of those. The executor merges updates key by key, follows
// explicit transitions, and otherwise falls through to the next registered
// step until the graph terminates.
//
// Key properties:
//
//   - Steps execute strictly sequentially within a run; independent runs of
//     the same Workflow share no mutable state.
//   - A step may declare required fields (Requires). The handler is never
//     invoked when one of them is absent; a *PreconditionError is returned.
//   - Input and output are validated against optional JSON schemas at the run
//     boundaries only.
//   - A hard cap on executed steps (Options.MaxSteps) guards against cycles.
//   - Observers are notified synchronously at run and step boundaries.
//
// Example:
//
//	wf := workflow.New("greeter")
//	wf.MustAddStep("hello", func(ctx context.Context, s workflow.State) (workflow.Transition, error) {
//		return workflow.UpdateFinish(workflow.State{"greeting": "hello " + s.String("name")}), nil
//	}, workflow.Requires("name"))
//
//	res, err := wf.Run(ctx, workflow.State{"name": "gopher"})
package workflow
