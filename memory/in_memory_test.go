package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/beeflow/model"
)

func TestInMemoryStore_AddAndMessages(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	msgs, err := store.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %#v", msgs)
	}

	if err := store.Add(ctx, "s1", model.UserMessage("hi"), model.AssistantMessage("hello")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	msgs, _ = store.Messages(ctx, "s1")
	if len(msgs) != 2 || msgs[0].Content != "hi" || msgs[1].Role != model.RoleAssistant {
		t.Fatalf("unexpected history: %#v", msgs)
	}

	// mutation safety (returned slice is a copy)
	msgs[0].Content = "changed"
	again, _ := store.Messages(ctx, "s1")
	if again[0].Content != "hi" {
		t.Fatalf("internal history mutated via returned slice")
	}

	other, _ := store.Messages(ctx, "s2")
	if len(other) != 0 {
		t.Fatalf("sessions must be isolated, got %#v", other)
	}
}

func TestInMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_ = store.Add(ctx, "s1", model.UserMessage("hi"))

	if err := store.Reset(ctx, "s1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	msgs, _ := store.Messages(ctx, "s1")
	if len(msgs) != 0 {
		t.Fatalf("expected empty history after reset, got %#v", msgs)
	}
	if len(store.Sessions()) != 0 {
		t.Fatalf("expected no sessions, got %v", store.Sessions())
	}
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Add(ctx, "s1", model.UserMessage(fmt.Sprintf("m%d", i)))
		}(i)
	}
	wg.Wait()

	msgs, _ := store.Messages(ctx, "s1")
	if len(msgs) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(msgs))
	}
}

func TestSliding(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_ = store.Add(ctx, "s1",
		model.SystemMessage("sys"),
		model.UserMessage("q1"),
		model.Message{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{{ID: "c1", Name: "search"}}},
		model.ToolResultMessage("c1", "search", "r1"),
		model.AssistantMessage("a1"),
		model.UserMessage("q2"),
		model.AssistantMessage("a2"),
	)

	window := Sliding(store, 5)
	msgs, err := window.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// system + last 4, minus the tool result whose call was cut off
	want := []string{"sys", "a1", "q2", "a2"}
	if len(msgs) != len(want) {
		t.Fatalf("unexpected window: %#v", msgs)
	}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Fatalf("window[%d] = %q, want %q", i, msgs[i].Content, w)
		}
	}

	if Sliding(store, 0) != Store(store) {
		t.Fatalf("zero window should return the store unchanged")
	}
}
