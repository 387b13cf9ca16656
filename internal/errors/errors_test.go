package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      *StandardError
		expected int
	}{
		{"validation", NewValidation("summary", "must not be empty", ""), http.StatusBadRequest},
		{"required field", NewRequiredField("workspace_id"), http.StatusBadRequest},
		{"transport", NewTransport("workspace id is not valid base64"), http.StatusBadRequest},
		{"not found", NewNotFound("decision", 42), http.StatusNotFound},
		{"conflict", NewConflict("system_pattern", "name already exists"), http.StatusConflict},
		{"internal", NewInternal("migration failed", nil), http.StatusInternalServerError},
		{"database", NewDatabase("tx begin failed", nil), http.StatusInternalServerError},
		{"embedding", NewEmbedding("model unavailable", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.ToHTTPStatus())
		})
	}
}

func TestJSONRPCCodeMapping(t *testing.T) {
	resp := NewValidation("limit", "out of range", 900).ToJSONRPCError(7)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
	assert.Equal(t, 7, resp.ID)

	resp = NewNotFound("progress_entry", 3).ToJSONRPCError(nil)
	assert.Equal(t, -32001, resp.Error.Code)

	resp = NewInternal("boom", nil).ToJSONRPCError(nil)
	assert.Equal(t, -32603, resp.Error.Code)
}

func TestEnvelope(t *testing.T) {
	env := NewNotFound("decision", 9).ToEnvelope()
	assert.Equal(t, "decision not found: 9", env["error"])
	assert.Contains(t, env, "details")

	env = NewTransport("bad encoding").ToEnvelope()
	assert.Equal(t, "bad encoding", env["error"])
	assert.NotContains(t, env, "details")
}

func TestAsStandard(t *testing.T) {
	assert.Nil(t, AsStandard(nil))

	se := NewConflict("custom_data", "duplicate")
	assert.Same(t, se, AsStandard(se))
	assert.Same(t, se, AsStandard(fmt.Errorf("wrapped: %w", se)))

	plain := AsStandard(fmt.Errorf("disk full"))
	assert.Equal(t, ErrorCodeInternal, plain.ErrorInfo.Code)
	assert.Equal(t, "disk full", plain.ErrorInfo.Message)
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, IsValidation(NewRequiredField("workspace_id")))
	assert.True(t, IsNotFound(NewNotFound("link", 1)))
	assert.True(t, IsConflict(NewConflict("system_pattern", "dup")))
	assert.False(t, IsValidation(NewNotFound("link", 1)))
	assert.False(t, IsNotFound(fmt.Errorf("opaque")))
}

func TestWithTraceIDLeavesReceiverUntouched(t *testing.T) {
	a := ErrWorkspaceIDRequired.WithTraceID("trace-a")
	b := ErrWorkspaceIDRequired.WithTraceID("trace-b")

	assert.Empty(t, ErrWorkspaceIDRequired.ErrorInfo.TraceID,
		"shared sentinels must stay immutable")
	assert.Equal(t, "trace-a", a.ErrorInfo.TraceID)
	assert.Equal(t, "trace-b", b.ErrorInfo.TraceID)
}

func TestWriteHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	NewNotFound("decision", 5).WithTraceID("trace-9").WriteHTTP(rec)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "trace-9", rec.Header().Get("X-Trace-ID"))
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
