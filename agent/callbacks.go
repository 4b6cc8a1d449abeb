package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/beeflow/model"
)

// CallbackType defines the lifecycle points of a turn where callbacks run.
type CallbackType string

const (
	// CallbackBeforeModel runs before every model call. Callbacks may edit
	// CallbackContext.Request.
	CallbackBeforeModel CallbackType = "before_model"

	// CallbackAfterModel runs after every successful model call.
	CallbackAfterModel CallbackType = "after_model"

	// CallbackBeforeTool runs before a tool is called.
	CallbackBeforeTool CallbackType = "before_tool"

	// CallbackAfterTool runs after a tool call, successful or not.
	CallbackAfterTool CallbackType = "after_tool"
)

// CallbackContext carries the data available at a lifecycle point. Fields
// that do not apply to the current CallbackType are nil.
type CallbackContext struct {
	Type      CallbackType
	Agent     string
	Session   string // empty for turns without a session
	Iteration int    // 1 based model call counter

	Request    *model.Request
	Response   *model.Response
	ToolCall   *model.ToolCall
	Invocation *ToolInvocation
}

// Callback hooks into an agent turn. Returning an error aborts the turn.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, cc *CallbackContext) error
}

// FunctionCallback wraps a function as a Callback.
//
// Example:
//
//	agent.NewFunctionCallback(agent.CallbackAfterTool, func(ctx context.Context, cc *agent.CallbackContext) error {
//	    log.Printf("%s -> %s", cc.ToolCall.Name, cc.Invocation.Result)
//	    return nil
//	})
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, cc *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(t CallbackType, fn func(ctx context.Context, cc *CallbackContext) error) *FunctionCallback {
	return &FunctionCallback{callbackType: t, fn: fn}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function.
func (c *FunctionCallback) Execute(ctx context.Context, cc *CallbackContext) error {
	return c.fn(ctx, cc)
}

// callbackManager routes callbacks by type. It is built once per agent and
// read-only afterwards.
type callbackManager struct {
	callbacks map[CallbackType][]Callback
}

func newCallbackManager(cbs []Callback) *callbackManager {
	m := &callbackManager{callbacks: make(map[CallbackType][]Callback)}
	for _, cb := range cbs {
		if cb == nil {
			continue
		}
		m.callbacks[cb.Type()] = append(m.callbacks[cb.Type()], cb)
	}
	return m
}

// execute runs the callbacks registered for cc.Type in registration order and
// stops at the first error.
func (m *callbackManager) execute(ctx context.Context, cc *CallbackContext) error {
	for _, cb := range m.callbacks[cc.Type] {
		if err := cb.Execute(ctx, cc); err != nil {
			return fmt.Errorf("%s callback: %w", cc.Type, err)
		}
	}
	return nil
}
