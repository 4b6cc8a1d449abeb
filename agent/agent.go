package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/beeflow/logging"
	"github.com/hupe1980/beeflow/model"
	"github.com/hupe1980/beeflow/session"
	"github.com/hupe1980/beeflow/tool"
)

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Instruction is the system prompt. Defaults to "You are <name>, a helpful AI assistant."
	Instruction Instruction

	// Tools the model may call.
	Tools []tool.Tool

	// MaxIterations caps model calls per turn. 0 means unlimited.
	MaxIterations int

	// ToolTimeout bounds every individual tool call.
	ToolTimeout time.Duration

	// Stream requests streaming generation; deltas reach RunOptions.OnDelta.
	Stream bool

	// Callbacks hook into model and tool calls.
	Callbacks []Callback

	Logger logging.Logger
}

// Agent is a tool-calling conversational agent.
type Agent struct {
	name        string
	llm         model.Model
	instruction Instruction
	tools       *tool.Set
	maxIter     int
	toolTimeout time.Duration
	stream      bool
	callbacks   *callbackManager
	logger      logging.Logger
}

// New creates an agent with sensible defaults:
//   - 8 model calls per turn
//   - 15-second timeout for tool calls
//   - streaming disabled
func New(name string, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instruction:   NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxIterations: 8,
		ToolTimeout:   15 * time.Second,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Agent{
		name:        name,
		llm:         llm,
		instruction: opts.Instruction,
		tools:       tool.NewSet(opts.Tools...),
		maxIter:     opts.MaxIterations,
		toolTimeout: opts.ToolTimeout,
		stream:      opts.Stream,
		callbacks:   newCallbackManager(opts.Callbacks),
		logger:      logging.With(opts.Logger, "agent", name),
	}
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Model returns the underlying model.
func (a *Agent) Model() model.Model { return a.llm }

// Tools returns the names of registered tools.
func (a *Agent) Tools() []string { return a.tools.Names() }

// RunOptions customizes a single turn.
type RunOptions struct {
	// Vars feed template and provider instructions.
	Vars map[string]any

	// OnDelta receives streamed text when the agent streams.
	OnDelta func(delta string)
}

// ToolInvocation records one tool call made during a turn.
type ToolInvocation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	Err       string `json:"error,omitempty"`
}

// Answer is the outcome of a turn.
type Answer struct {
	Text       string           `json:"text"`
	ToolCalls  []ToolInvocation `json:"tool_calls,omitempty"`
	Iterations int              `json:"iterations"`
	Usage      model.TokenUsage `json:"usage"`
}

// Run answers prompt within sess. The session history is sent to the model
// and the prompt plus the final answer are appended to it. A nil session
// runs the turn without memory. Turns on the same session are serialized.
func (a *Agent) Run(ctx context.Context, sess *session.Session, prompt string, optFns ...func(o *RunOptions)) (*Answer, error) {
	opts := RunOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := a.logger
	sessionID := ""
	var history []model.Message
	if sess != nil {
		sessionID = sess.ID()
		sess.Lock()
		defer sess.Unlock()

		logger = logging.With(logger, "session", sess.ID())
		h, err := sess.History(ctx)
		if err != nil {
			return nil, fmt.Errorf("agent %s: load history: %w", a.name, err)
		}
		history = h
	}

	system, err := a.instruction.Resolve(ctx, opts.Vars)
	if err != nil {
		return nil, fmt.Errorf("agent %s: resolve instruction: %w", a.name, err)
	}

	logger.Debug("agent.run.start", "history", len(history), "tools", a.tools.Len())

	userMsg := model.UserMessage(prompt)
	msgs := append(history, userMsg)
	defs := a.tools.Definitions()
	limiter := NewModelLimiter(a.maxIter)
	answer := &Answer{}

	for {
		if err := limiter.Increment(); err != nil {
			logger.Warn("agent.run.limit", "max", a.maxIter)
			return nil, fmt.Errorf("agent %s: %w", a.name, err)
		}

		cc := &CallbackContext{Agent: a.name, Session: sessionID, Iteration: limiter.Count()}

		req := model.Request{
			System:   system,
			Messages: msgs,
			Tools:    defs,
			Stream:   a.stream,
		}
		cc.Type, cc.Request = CallbackBeforeModel, &req
		if err := a.callbacks.execute(ctx, cc); err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.name, err)
		}

		resp, err := model.Stream(ctx, a.llm, req, opts.OnDelta)
		if err != nil {
			logger.Error("agent.model.error", "error", err)
			return nil, fmt.Errorf("agent %s: generate: %w", a.name, err)
		}
		answer.Iterations = limiter.Count()
		addUsage(&answer.Usage, resp.Usage)

		cc.Type, cc.Response = CallbackAfterModel, resp
		if err := a.callbacks.execute(ctx, cc); err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.name, err)
		}

		reply := resp.Message
		reply.Role = model.RoleAssistant
		if len(reply.ToolCalls) == 0 {
			answer.Text = reply.Content
			break
		}

		msgs = append(msgs, reply)
		for _, call := range reply.ToolCalls {
			cc.Type, cc.ToolCall, cc.Invocation = CallbackBeforeTool, &call, nil
			if err := a.callbacks.execute(ctx, cc); err != nil {
				return nil, fmt.Errorf("agent %s: %w", a.name, err)
			}

			inv := a.callTool(ctx, logger, sessionID, call)

			cc.Type, cc.Invocation = CallbackAfterTool, &inv
			if err := a.callbacks.execute(ctx, cc); err != nil {
				return nil, fmt.Errorf("agent %s: %w", a.name, err)
			}

			answer.ToolCalls = append(answer.ToolCalls, inv)
			msgs = append(msgs, model.ToolResultMessage(call.ID, call.Name, inv.Result))
		}
	}

	if sess != nil {
		if err := sess.Append(ctx, userMsg, model.AssistantMessage(answer.Text)); err != nil {
			return nil, fmt.Errorf("agent %s: save history: %w", a.name, err)
		}
	}

	logger.Debug("agent.run.complete", "iterations", answer.Iterations, "tool_calls", len(answer.ToolCalls))
	return answer, nil
}

// Ask runs a single turn without session memory.
func (a *Agent) Ask(ctx context.Context, prompt string, vars map[string]any) (string, error) {
	ans, err := a.Run(ctx, nil, prompt, func(o *RunOptions) { o.Vars = vars })
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}

// callTool executes one call. Failures become the tool result so the model
// can recover; they never abort the turn.
func (a *Agent) callTool(ctx context.Context, logger logging.Logger, sessionID string, call model.ToolCall) ToolInvocation {
	inv := ToolInvocation{ID: call.ID, Name: call.Name, Arguments: call.Arguments}

	fail := func(err error) ToolInvocation {
		inv.Err = err.Error()
		data, _ := json.Marshal(map[string]string{"error": inv.Err})
		inv.Result = string(data)
		return inv
	}

	t, ok := a.tools.Get(call.Name)
	if !ok {
		logger.Warn("agent.tool.unknown", "tool", call.Name)
		return fail(tool.NewToolError(call.Name, "unknown tool", tool.CodeNotFound))
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fail(tool.NewToolError(call.Name, "arguments are not a JSON object: "+err.Error(), tool.CodeValidation))
		}
	}

	callCtx := ctx
	if a.toolTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.toolTimeout)
		defer cancel()
	}
	callCtx = tool.WithCallInfo(callCtx, tool.CallInfo{ID: call.ID, Agent: a.name, Session: sessionID, Logger: logger})

	result, err := t.Call(callCtx, args)
	if err != nil {
		return fail(err)
	}

	if s, ok := result.(string); ok {
		inv.Result = s
		return inv
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fail(fmt.Errorf("encode result: %w", err))
	}
	inv.Result = string(data)
	return inv
}

func addUsage(total *model.TokenUsage, u *model.TokenUsage) {
	if u == nil {
		return
	}
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}
