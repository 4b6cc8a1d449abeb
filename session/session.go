package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/beeflow/memory"
	"github.com/hupe1980/beeflow/model"
)

// Session is a scoped conversation. Its history lives in a memory.Store under
// the session id. Append and History are safe for concurrent use; callers
// that need a read-modify-append sequence to be atomic (one agent turn)
// bracket it with Lock and Unlock.
type Session struct {
	id      string
	created time.Time
	store   memory.Store

	turn sync.Mutex
}

// New creates a session with the given id. An empty id generates a UUID; a
// nil store selects a fresh in-memory store.
func New(id string, store memory.Store) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if store == nil {
		store = memory.NewInMemoryStore()
	}
	return &Session{id: id, created: time.Now(), store: store}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Created returns the creation time.
func (s *Session) Created() time.Time { return s.created }

// Memory returns the backing store.
func (s *Session) Memory() memory.Store { return s.store }

// Append adds messages to the history.
func (s *Session) Append(ctx context.Context, msgs ...model.Message) error {
	return s.store.Add(ctx, s.id, msgs...)
}

// History returns the conversation so far.
func (s *Session) History(ctx context.Context) ([]model.Message, error) {
	return s.store.Messages(ctx, s.id)
}

// Reset clears the history.
func (s *Session) Reset(ctx context.Context) error {
	return s.store.Reset(ctx, s.id)
}

// Lock acquires the turn lock.
func (s *Session) Lock() { s.turn.Lock() }

// Unlock releases the turn lock.
func (s *Session) Unlock() { s.turn.Unlock() }
