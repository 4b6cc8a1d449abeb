package session

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/beeflow/memory"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Manager is a volatile registry of sessions sharing one history store. It
// is safe for concurrent access and suited for single process servers.
type Manager struct {
	mu       sync.RWMutex
	store    memory.Store
	sessions map[string]*Session
}

// NewManager constructs an empty manager. A nil store selects an in-memory store.
func NewManager(store memory.Store) *Manager {
	if store == nil {
		store = memory.NewInMemoryStore()
	}
	return &Manager{store: store, sessions: make(map[string]*Session)}
}

// Create registers a new session with a generated id.
func (m *Manager) Create() *Session {
	sess := New("", m.store)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID()] = sess
	return sess
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// GetOrCreate returns the session with the given id, registering it when
// unknown. Histories persisted by a shared store become reachable again this way.
func (m *Manager) GetOrCreate(id string) *Session {
	if id == "" {
		return m.Create()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return sess
	}
	sess := New(id, m.store)
	m.sessions[id] = sess
	return sess
}

// Delete forgets the session and resets its history.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return sess.Reset(ctx)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
