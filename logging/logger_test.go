package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf, Component: "workflow"})

	l.Debug("hidden")
	l.Info("visible", "step", "planner")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"visible"`)
	assert.Contains(t, out, `"component":"workflow"`)
	assert.Contains(t, out, `"step":"planner"`)
}

type recordingLogger struct {
	NoOpLogger
	args []any
}

func (r *recordingLogger) Info(_ string, args ...any) { r.args = args }

func TestWith_NonSlogLogger(t *testing.T) {
	rec := &recordingLogger{}
	l := With(rec, "run_id", "r1")
	l.Info("msg", "step", "a")
	assert.Equal(t, []any{"run_id", "r1", "step", "a"}, rec.args)
}

func TestWith_Nil(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, With(nil))
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
