package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Topic string   `json:"topic"`
	Notes []string `json:"notes,omitempty"`
}

func TestReflect_RequiredAndProperties(t *testing.T) {
	doc, err := Reflect(&sample{})
	require.NoError(t, err)

	assert.Equal(t, "object", doc["type"])
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "topic")
	assert.Contains(t, props, "notes")
	assert.Equal(t, []any{"topic"}, doc["required"])
	assert.NotContains(t, doc, "$schema")
}

func TestSchema_ValidateTypedValues(t *testing.T) {
	s, err := FromType(&sample{})
	require.NoError(t, err)

	assert.NoError(t, s.Validate(map[string]any{"topic": "go", "notes": []string{"a", "b"}}))
	assert.NoError(t, s.Validate(map[string]any{"topic": "go", "extra": 1}))

	err = s.Validate(map[string]any{"notes": []string{"a"}})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.NotEmpty(t, verrs)
}

func TestSchema_HandWrittenDocument(t *testing.T) {
	s, err := New(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
		},
		"required": []string{"location"},
	})
	require.NoError(t, err)

	assert.NoError(t, s.Validate(map[string]any{"location": "Berlin"}))

	err = s.Validate(map[string]any{"location": 42})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "/location", verrs[0].Field)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("{not json"))
	assert.Error(t, err)
}
