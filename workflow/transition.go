package workflow

// End is the terminal marker. A transition pointing at End finishes the run.
const End = "__end__"

// Transition is the result of a step: an optional partial state update and
// an optional next step.
//
// An empty Next means "fall through" to the step registered after the current
// one, or finish the run when the current step is the last one.
type Transition struct {
	Update State
	Next   string
}

// Continue falls through without changing the state.
func Continue() Transition { return Transition{} }

// Update merges u into the state and falls through.
func Update(u State) Transition { return Transition{Update: u} }

// Goto jumps to the named step without changing the state.
func Goto(next string) Transition { return Transition{Next: next} }

// UpdateGoto merges u into the state and jumps to the named step.
func UpdateGoto(u State, next string) Transition { return Transition{Update: u, Next: next} }

// Finish ends the run.
func Finish() Transition { return Transition{Next: End} }

// UpdateFinish merges u into the state and ends the run.
func UpdateFinish(u State) Transition { return Transition{Update: u, Next: End} }

// Terminal reports whether the transition ends the run.
func (t Transition) Terminal() bool { return t.Next == End }
