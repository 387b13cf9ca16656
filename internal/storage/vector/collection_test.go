package vector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaport-mcp/internal/embeddings"
)

func openTestCollection(t *testing.T) (*Collection, *embeddings.LocalService) {
	t.Helper()
	embedder := embeddings.NewLocal(64)
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "vectors.db"), embedder.Dimensions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, embedder
}

func embed(t *testing.T, e *embeddings.LocalService, text string) []float32 {
	t.Helper()
	vec, err := e.Generate(context.Background(), text)
	require.NoError(t, err)
	return vec
}

func TestEmptyCollectionReturnsEmptySlice(t *testing.T) {
	c, e := openTestCollection(t)

	results, err := c.Query(context.Background(), embed(t, e, "anything"), 1, nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestUpsertQueryDelete(t *testing.T) {
	c, e := openTestCollection(t)
	ctx := context.Background()

	text := "Decision: adopt postgres for analytics"
	require.NoError(t, c.Upsert(ctx, "decision_1", embed(t, e, text),
		map[string]interface{}{"item_type": "decision", "summary": "adopt postgres"}))
	require.NoError(t, c.Upsert(ctx, "decision_2", embed(t, e, "Decision: rewrite the frontend"),
		map[string]interface{}{"item_type": "decision", "summary": "rewrite frontend"}))

	results, err := c.Query(ctx, embed(t, e, "postgres analytics"), 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "decision_1", results[0].ID)
	assert.Equal(t, "decision", results[0].Metadata["item_type"])

	require.NoError(t, c.Delete(ctx, "decision_1"))
	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Deleting a missing ID is not an error.
	require.NoError(t, c.Delete(ctx, "decision_1"))
}

func TestUpsertReplacesExisting(t *testing.T) {
	c, e := openTestCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, "custom_data_5", embed(t, e, "old value"),
		map[string]interface{}{"item_type": "custom_data", "key": "k"}))
	require.NoError(t, c.Upsert(ctx, "custom_data_5", embed(t, e, "new value"),
		map[string]interface{}{"item_type": "custom_data", "key": "k"}))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQueryWithFilter(t *testing.T) {
	c, e := openTestCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, "decision_1", embed(t, e, "postgres migration plan"),
		map[string]interface{}{"item_type": "decision", "tags": "db,pg"}))
	require.NoError(t, c.Upsert(ctx, "decision_2", embed(t, e, "postgres backup policy"),
		map[string]interface{}{"item_type": "decision", "tags": "frontend"}))
	require.NoError(t, c.Upsert(ctx, "progress_entry_1", embed(t, e, "postgres upgrade in progress"),
		map[string]interface{}{"item_type": "progress_entry", "status": "IN_PROGRESS"}))

	results, err := c.Query(ctx, embed(t, e, "postgres"), 10, Expr{
		"$and": []interface{}{
			map[string]interface{}{"item_type": map[string]interface{}{"$in": []interface{}{"decision"}}},
			map[string]interface{}{"tags": map[string]interface{}{"$contains": "db"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "decision_1", results[0].ID)
}

func TestUpsertRejectsWrongDimensions(t *testing.T) {
	c, _ := openTestCollection(t)
	err := c.Upsert(context.Background(), "decision_1", make([]float32, 3), nil)
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	c, e := openTestCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, "decision_1", embed(t, e, "text"),
		map[string]interface{}{"item_type": "decision"}))
	require.NoError(t, c.Reset(ctx))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
