package memory

import (
	"context"
	"sync"

	"github.com/hupe1980/beeflow/model"
)

// InMemoryStore is a naive process-local Store.
//
// Concurrency: protected by RWMutex. Messages are copied on the way in and
// out so callers can never alias stored history.
type InMemoryStore struct {
	mu      sync.RWMutex
	history map[string][]model.Message // sessionID -> messages
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{history: make(map[string][]model.Message)}
}

// Add appends messages to the session history.
func (m *InMemoryStore) Add(_ context.Context, sessionID string, msgs ...model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.history[sessionID] = append(m.history[sessionID], copyMessage(msg))
	}
	return nil
}

// Messages returns a copy of the session history.
func (m *InMemoryStore) Messages(_ context.Context, sessionID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.history[sessionID]
	out := make([]model.Message, len(src))
	for i, msg := range src {
		out[i] = copyMessage(msg)
	}
	return out, nil
}

// Reset drops the session history.
func (m *InMemoryStore) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, sessionID)
	return nil
}

// Sessions returns the ids of sessions with history.
func (m *InMemoryStore) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.history))
	for id := range m.history {
		ids = append(ids, id)
	}
	return ids
}

func copyMessage(msg model.Message) model.Message {
	if msg.ToolCalls != nil {
		msg.ToolCalls = append([]model.ToolCall(nil), msg.ToolCalls...)
	}
	return msg
}
