package memory

import (
	"context"

	"github.com/hupe1980/beeflow/model"
)

// Store persists the message history of conversation sessions.
type Store interface {
	// Add appends messages to the session history.
	Add(ctx context.Context, sessionID string, msgs ...model.Message) error

	// Messages returns the full history of the session in insertion order.
	// Unknown sessions have an empty history.
	Messages(ctx context.Context, sessionID string) ([]model.Message, error)

	// Reset drops the session history.
	Reset(ctx context.Context, sessionID string) error
}
