package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "beeflow "+version+"\n", out)
}

func TestSchema_Router(t *testing.T) {
	t.Setenv("BEEFLOW_LOG_LEVEL", "error")

	out, err := execute(t, "schema", "router")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "router", doc["name"])
	assert.Len(t, doc["steps"], 6)
	assert.Contains(t, doc, "input_schema")
}

func TestSchema_Unknown(t *testing.T) {
	_, err := execute(t, "schema", "nope")
	assert.ErrorContains(t, err, "unknown workflow")
}

func TestRun_InvalidState(t *testing.T) {
	_, err := execute(t, "run", "router", "{not json", "--provider", "mock")
	assert.ErrorContains(t, err, "input state")
}
