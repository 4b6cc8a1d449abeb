package memory

import (
	"context"

	"github.com/hupe1980/beeflow/model"
)

type slidingStore struct {
	Store
	size int
}

// Sliding wraps a store so that Messages returns at most the last size
// messages. A leading system message is always kept, and the window never
// starts with a tool result whose call was cut off. Writes go to the
// underlying store unchanged. A size <= 0 disables the window.
func Sliding(store Store, size int) Store {
	if size <= 0 {
		return store
	}
	return &slidingStore{Store: store, size: size}
}

func (s *slidingStore) Messages(ctx context.Context, sessionID string) ([]model.Message, error) {
	msgs, err := s.Store.Messages(ctx, sessionID)
	if err != nil || len(msgs) <= s.size {
		return msgs, err
	}

	var head []model.Message
	if msgs[0].Role == model.RoleSystem {
		head, msgs = msgs[:1], msgs[1:]
	}

	keep := s.size - len(head)
	if keep < 0 {
		keep = 0
	}
	if keep < len(msgs) {
		msgs = msgs[len(msgs)-keep:]
	}
	for len(msgs) > 0 && msgs[0].Role == model.RoleTool {
		msgs = msgs[1:]
	}

	return append(append([]model.Message(nil), head...), msgs...), nil
}
