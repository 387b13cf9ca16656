package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(LevelDebug, &buf, true)

	logger.WithComponent("registry").Info("workspace initialized", "workspace_id", "/tmp/w1")

	var e map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, "workspace initialized", e["message"])
	assert.Equal(t, "registry", e["component"])
	fields, ok := e["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/tmp/w1", fields["workspace_id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(LevelWarn, &buf, true)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestTraceIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(LevelDebug, &buf, true)

	ctx := WithTrace(context.Background(), "trace-123")
	assert.Equal(t, "trace-123", TraceID(ctx))

	logger.InfoContext(ctx, "handling request")

	var e map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "trace-123", e["trace_id"])
}

func TestWithTraceMintsID(t *testing.T) {
	ctx := WithTrace(context.Background(), "")
	assert.NotEmpty(t, TraceID(ctx))
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(LevelInfo, &buf, false)

	logger.WithComponent("vector").Warn("embedding missing", "id", "decision_7")

	out := buf.String()
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "vector:")
	assert.Contains(t, out, "id=decision_7")
}
