package model

import (
	"context"
	"fmt"
	"sync"
)

// MockReply is one scripted MockModel turn.
type MockReply struct {
	Text      string
	ToolCalls []ToolCall
	Err       error
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
//
// Scripted replies (Reply, ReplyToolCall, ReplyError) are consumed in order.
// Once the script is exhausted, canned responses registered with AddResponse
// are matched against the last user message; anything else is answered with
// "Mock response to: <text>".
type MockModel struct {
	info Info

	mu        sync.Mutex
	script    []MockReply
	responses map[string]string
	requests  []Request
}

var _ Model = (*MockModel)(nil)

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
	return m
}

// Reply appends a scripted text reply.
func (m *MockModel) Reply(text string) *MockModel {
	return m.enqueue(MockReply{Text: text})
}

// ReplyToolCall appends a scripted reply requesting a single tool call.
func (m *MockModel) ReplyToolCall(id, name, arguments string) *MockModel {
	return m.enqueue(MockReply{ToolCalls: []ToolCall{{ID: id, Name: name, Arguments: arguments}}})
}

// ReplyError appends a scripted failure.
func (m *MockModel) ReplyError(err error) *MockModel {
	return m.enqueue(MockReply{Err: err})
}

func (m *MockModel) enqueue(r MockReply) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, r)
	return m
}

// Requests returns every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Remaining returns the number of unconsumed scripted replies.
func (m *MockModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}

func (m *MockModel) next(req Request) MockReply {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r
	}

	input := lastUserText(req.Messages)
	if canned, ok := m.responses[input]; ok {
		return MockReply{Text: canned}
	}
	return MockReply{Text: fmt.Sprintf("Mock response to: %s", input)}
}

// Generate implements Model; emits optional streaming char chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	reply := m.next(req)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if reply.Err != nil {
			errCh <- reply.Err
			return
		}
		if req.Stream {
			for _, r := range reply.Text {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Message: AssistantMessage(string(r))}:
				}
			}
		}

		finish := "stop"
		if len(reply.ToolCalls) > 0 {
			finish = "tool_calls"
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{
			Message: Message{
				Role:      RoleAssistant,
				Content:   reply.Text,
				ToolCalls: append([]ToolCall(nil), reply.ToolCalls...),
			},
			FinishReason: finish,
		}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

func lastUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
