package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, State) (Transition, error) { return Continue(), nil }

func TestRegistry_OrderAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", noop))
	require.NoError(t, r.Register("b", noop, Requires("x"), WithDescription("second")))

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Len())

	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, "a", first)

	next, ok := r.After("a")
	require.True(t, ok)
	assert.Equal(t, "b", next)

	_, ok = r.After("b")
	assert.False(t, ok)

	s, ok := r.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, s.Requires)
	assert.Equal(t, "second", s.Description)
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", noop))

	err := r.Register("a", noop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateStep))

	var dup *DuplicateStepError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Step)
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("", noop))
	assert.Error(t, r.Register(End, noop))
	assert.Error(t, r.Register("x", nil))
	assert.Equal(t, 0, r.Len())
}

func TestTransitionConstructors(t *testing.T) {
	assert.Equal(t, Transition{}, Continue())
	assert.Equal(t, Finish(), Goto(End))
	assert.True(t, UpdateFinish(State{"a": 1}).Terminal())
	assert.False(t, UpdateGoto(State{"a": 1}, "b").Terminal())
	assert.Equal(t, "b", UpdateGoto(nil, "b").Next)
	assert.Equal(t, State{"a": 1}, Update(State{"a": 1}).Update)
}
