// Package memorytest provides a behavioural contract shared by all
// memory.Store implementations.
package memorytest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/beeflow/memory"
	"github.com/hupe1980/beeflow/model"
)

// RunStoreContract exercises store against the memory.Store contract.
func RunStoreContract(t *testing.T, store memory.Store) {
	ctx := context.Background()
	sessionID := "contract-" + time.Now().Format("20060102150405.000000000")

	t.Run("Empty history", func(t *testing.T) {
		msgs, err := store.Messages(ctx, "missing-"+sessionID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Append preserves order and fields", func(t *testing.T) {
		require.NoError(t, store.Add(ctx, sessionID, model.UserMessage("weather in Berlin?")))
		require.NoError(t, store.Add(ctx, sessionID,
			model.Message{
				Role:      model.RoleAssistant,
				ToolCalls: []model.ToolCall{{ID: "c1", Name: "get_weather", Arguments: `{"location":"Berlin"}`}},
			},
			model.ToolResultMessage("c1", "get_weather", "12°C"),
			model.AssistantMessage("It is 12°C."),
		))

		msgs, err := store.Messages(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, msgs, 4)
		assert.Equal(t, model.RoleUser, msgs[0].Role)
		assert.Equal(t, "get_weather", msgs[1].ToolCalls[0].Name)
		assert.Equal(t, "c1", msgs[2].ToolCallID)
		assert.Equal(t, "It is 12°C.", msgs[3].Content)
	})

	t.Run("Sessions are isolated", func(t *testing.T) {
		msgs, err := store.Messages(ctx, "other-"+sessionID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Reset", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx, sessionID))
		msgs, err := store.Messages(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}
