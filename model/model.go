package model

import (
	"context"
	"errors"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ErrNoResponse is returned when a model closes its channels without a response.
var ErrNoResponse = errors.New("model returned no response")

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON encoded arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Message is one entry of a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`  // assistant messages requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool messages answering a call
	Name       string     `json:"name,omitempty"`         // tool name for tool messages
}

// SystemMessage creates a system message.
func SystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// UserMessage creates a user message.
func UserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// AssistantMessage creates an assistant message.
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

// ToolResultMessage creates a tool message answering the call with the given id.
func ToolResultMessage(callID, name, result string) Message {
	return Message{Role: RoleTool, Content: result, ToolCallID: callID, Name: name}
}

// Request captures the normalized model input.
type Request struct {
	System   string           `json:"system,omitempty"` // system instruction, sent ahead of Messages
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
	JSONMode bool             `json:"json_mode,omitempty"` // ask the provider for a JSON object reply
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
// Partial chunks carry a text delta in Message.Content.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Message      Message     `json:"message"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents and workflows to drive generation.
//
// Generate emits zero or more partial responses followed by exactly one final
// response on the first channel, or a single error on the second. Both
// channels are closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a generation and returns the final response.
func Collect(ctx context.Context, m Model, req Request) (*Response, error) {
	return Stream(ctx, m, req, nil)
}

// Stream drains a generation like Collect and calls onDelta for every partial
// text chunk. If the model only emits partial chunks, they are joined into
// the final response.
func Stream(ctx context.Context, m Model, req Request, onDelta func(delta string)) (*Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final *Response
		text  strings.Builder
	)
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				if r.Message.Content != "" {
					text.WriteString(r.Message.Content)
					if onDelta != nil {
						onDelta(r.Message.Content)
					}
				}
				continue
			}
			resp := r
			final = &resp
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if final == nil {
		if text.Len() == 0 {
			return nil, ErrNoResponse
		}
		final = &Response{Message: AssistantMessage(text.String()), FinishReason: "stop"}
	}
	if final.Message.Role == "" {
		final.Message.Role = RoleAssistant
	}
	return final, nil
}

// GenerateText runs a generation and returns the assistant text.
func GenerateText(ctx context.Context, m Model, req Request) (string, error) {
	resp, err := Collect(ctx, m, req)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}
