package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaport-mcp/internal/config"
	"novaport-mcp/pkg/types"
)

func newTestServer(t *testing.T) *ContextServer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Embeddings.Dimensions = 64
	cs, err := NewContextServer(cfg)
	require.NoError(t, err)
	t.Cleanup(cs.Close)
	return cs
}

// call dispatches through the same wrapper the MCP server uses.
func call(t *testing.T, cs *ContextServer, tool string, args map[string]interface{}) interface{} {
	t.Helper()
	handler, ok := cs.handlerTable()[tool]
	require.True(t, ok, "unknown tool %q", tool)
	result, err := cs.wrap(tool, handler)(context.Background(), args)
	require.NoError(t, err)
	return result
}

func TestEveryCatalogToolHasHandler(t *testing.T) {
	cs := newTestServer(t)
	handlers := cs.handlerTable()

	defs := catalog()
	assert.Len(t, defs, 30)
	for _, def := range defs {
		assert.Contains(t, handlers, def.name)
	}
	assert.Len(t, handlers, len(defs))
}

func TestMissingWorkspaceIDReturnsEnvelope(t *testing.T) {
	cs := newTestServer(t)

	result := call(t, cs, "get_product_context", map[string]interface{}{})
	envelope, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, envelope, "error")
}

func TestLogAndGetDecisionsRoundTrip(t *testing.T) {
	cs := newTestServer(t)
	root := t.TempDir()

	logged := call(t, cs, "log_decision", map[string]interface{}{
		"workspace_id": root,
		"summary":      "serve tools over stdio",
		"tags":         []interface{}{"transport"},
	})
	decision, ok := logged.(*types.Decision)
	require.True(t, ok, "unexpected result shape %T", logged)
	assert.Equal(t, "serve tools over stdio", decision.Summary)

	listed := call(t, cs, "get_decisions", map[string]interface{}{
		"workspace_id": root,
	})
	decisions, ok := listed.([]types.Decision)
	require.True(t, ok)
	require.Len(t, decisions, 1)
}

func TestValidationFailureReturnsEnvelope(t *testing.T) {
	cs := newTestServer(t)

	result := call(t, cs, "log_decision", map[string]interface{}{
		"workspace_id": t.TempDir(),
		// no summary
	})
	envelope, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, envelope, "error")
}

func TestGetSchemaListsEveryTool(t *testing.T) {
	cs := newTestServer(t)

	result := call(t, cs, "get_conport_schema", map[string]interface{}{
		"workspace_id": t.TempDir(),
	})
	schemas, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, schemas, 30)
	assert.Contains(t, schemas, "semantic_search_conport")
}

func TestUpdateAndGetContextThroughTools(t *testing.T) {
	cs := newTestServer(t)
	root := t.TempDir()

	call(t, cs, "update_product_context", map[string]interface{}{
		"workspace_id": root,
		"content":      map[string]interface{}{"project": "Nova"},
	})
	result := call(t, cs, "get_product_context", map[string]interface{}{
		"workspace_id": root,
	})
	content, ok := result.(types.ContextContent)
	require.True(t, ok)
	assert.Equal(t, "Nova", content["project"])
}
