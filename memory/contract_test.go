package memory_test

import (
	"testing"

	"github.com/hupe1980/beeflow/memory"
	"github.com/hupe1980/beeflow/memory/memorytest"
)

func TestInMemoryStore_Contract(t *testing.T) {
	memorytest.RunStoreContract(t, memory.NewInMemoryStore())
}

func TestSliding_Contract(t *testing.T) {
	memorytest.RunStoreContract(t, memory.Sliding(memory.NewInMemoryStore(), 10))
}
