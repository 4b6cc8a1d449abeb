package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_FastPath(t *testing.T) {
	out, err := Render("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestRender_Funcs(t *testing.T) {
	out, err := Render(`Topic: {{ upper .topic }}
{{ bullets .notes }}
Plan: {{ default "none" .plan }}`, map[string]any{
		"topic": "go",
		"notes": []string{"fast", "simple"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Topic: GO\n- fast\n- simple\nPlan: none", out)
}

func TestParse_Error(t *testing.T) {
	_, err := Parse("broken", "{{ .x ")
	assert.Error(t, err)
}

func TestJoin_AnySlice(t *testing.T) {
	out, err := Render(`{{ join ", " .items }}`, map[string]any{"items": []any{"a", 1}})
	require.NoError(t, err)
	assert.Equal(t, "a, 1", out)
}
