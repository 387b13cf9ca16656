package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaport-mcp/internal/config"
	"novaport-mcp/internal/embeddings"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/storage/sqlite"
	"novaport-mcp/internal/workspace"
	"novaport-mcp/pkg/types"
)

func newTestBundle(t *testing.T) (*Bundle, *workspace.Workspace) {
	t.Helper()
	r := workspace.NewRegistry(config.DefaultConfig().Database, 64)
	t.Cleanup(r.Close)

	ws, err := r.Acquire(context.Background(), t.TempDir())
	require.NoError(t, err)

	embedder, err := embeddings.New(config.EmbeddingsConfig{Provider: "local", Dimensions: 64})
	require.NoError(t, err)
	return NewBundle(ws, embedder), ws
}

func TestContextPatchScenario(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Context.Update(ctx, sqlite.ContextProduct, types.UpdateContextParams{
		Content: types.ContextContent{"project": "Nova", "version": float64(1)},
	})
	require.NoError(t, err)

	_, err = b.Context.Update(ctx, sqlite.ContextProduct, types.UpdateContextParams{
		PatchContent: types.ContextContent{"version": float64(2), "status": "alpha"},
	})
	require.NoError(t, err)

	final, err := b.Context.Update(ctx, sqlite.ContextProduct, types.UpdateContextParams{
		PatchContent: types.ContextContent{"status": types.PatchDeleteSentinel},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ContextContent{"project": "Nova", "version": float64(2)}, final)

	history, err := b.Context.History(ctx, sqlite.ContextProduct, types.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Version)
}

func TestContextUpdateRequiresExactlyOneMode(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Context.Update(ctx, sqlite.ContextActive, types.UpdateContextParams{})
	assert.True(t, stderrors.IsValidation(err))

	_, err = b.Context.Update(ctx, sqlite.ContextActive, types.UpdateContextParams{
		Content:      types.ContextContent{"a": float64(1)},
		PatchContent: types.ContextContent{"b": float64(2)},
	})
	assert.True(t, stderrors.IsValidation(err))
}

func TestDecisionLogIndexesEmbedding(t *testing.T) {
	b, ws := newTestBundle(t)
	ctx := context.Background()

	d, err := b.Decision.Log(ctx, types.LogDecisionParams{
		Summary:   "use sqlite",
		Rationale: "single file, zero ops",
		Tags:      []string{"db"},
	})
	require.NoError(t, err)

	count, err := ws.Vectors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, b.Decision.Delete(ctx, d.ID))
	count, err = ws.Vectors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestProgressAutoLink(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Decision.Log(ctx, types.LogDecisionParams{Summary: "decision to implement"})
	require.NoError(t, err)

	_, err = b.Progress.Log(ctx, types.LogProgressParams{
		Status:         "IN_PROGRESS",
		Description:    "implementing it",
		LinkedItemType: types.ItemTypeDecision,
		LinkedItemID:   "1",
	})
	require.NoError(t, err)

	links, err := b.Link.List(ctx, types.LinkFilter{ItemType: types.ItemTypeDecision, ItemID: "1"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "relates_to_progress", links[0].RelationshipType)
	assert.Equal(t, types.ItemTypeProgress, links[0].SourceItemType)
}

func TestProgressDeleteCleansSubtreeEmbeddings(t *testing.T) {
	b, ws := newTestBundle(t)
	ctx := context.Background()

	parent, err := b.Progress.Log(ctx, types.LogProgressParams{Status: "TODO", Description: "parent"})
	require.NoError(t, err)
	_, err = b.Progress.Log(ctx, types.LogProgressParams{Status: "TODO", Description: "child", ParentID: &parent.ID})
	require.NoError(t, err)

	count, err := ws.Vectors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, b.Progress.Delete(ctx, parent.ID))
	count, err = ws.Vectors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestPatternDuplicateNameConflicts(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Pattern.Log(ctx, types.LogSystemPatternParams{Name: "event-sourcing"})
	require.NoError(t, err)
	_, err = b.Pattern.Log(ctx, types.LogSystemPatternParams{Name: "event-sourcing"})
	assert.True(t, stderrors.IsConflict(err))
}

func TestCustomDataNonSerializableSkipsEmbedding(t *testing.T) {
	b, ws := newTestBundle(t)
	ctx := context.Background()

	d, err := b.Custom.Log(ctx, types.LogCustomDataParams{
		Category: "runtime",
		Key:      "channel",
		Value:    make(chan int),
	})
	require.NoError(t, err)
	assert.Equal(t, "runtime", d.Category)

	// The row still lands, stored in stringified form.
	stored, err := b.Custom.Get(ctx, "runtime", "channel")
	require.NoError(t, err)
	str, ok := stored.Value.(string)
	require.True(t, ok)
	assert.NotEmpty(t, str)

	count, err := ws.Vectors.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count, "unserializable value must not be indexed")
}

func TestGlossarySearchPinsCategory(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Custom.Log(ctx, types.LogCustomDataParams{
		Category: GlossaryCategory, Key: "idempotent", Value: "same result on retry",
	})
	require.NoError(t, err)
	_, err = b.Custom.Log(ctx, types.LogCustomDataParams{
		Category: "notes", Key: "retry", Value: "retry budget is idempotent-safe",
	})
	require.NoError(t, err)

	hits, err := b.Custom.SearchGlossary(ctx, "idempotent", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, GlossaryCategory, hits[0].Category)
}

func TestBatchLogItemsMixedValidity(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	result, err := b.Meta.BatchLogItems(ctx, "decision", []map[string]interface{}{
		{"summary": "A"},
		{"rationale": "no summary"},
		{"summary": "B"},
		{"summary": nil},
		{"summary": "C"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, result.Details, 2)
}

func TestBatchLogItemsUnknownType(t *testing.T) {
	b, _ := newTestBundle(t)
	_, err := b.Meta.BatchLogItems(context.Background(), "unknown", nil)
	assert.True(t, stderrors.IsValidation(err))
}

func TestBatchProgressAlias(t *testing.T) {
	b, _ := newTestBundle(t)

	result, err := b.Meta.BatchLogItems(context.Background(), "progress", []map[string]interface{}{
		{"status": "DONE", "description": "shipped"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
}

func TestRecentActivitySinceWins(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Decision.Log(ctx, types.LogDecisionParams{Summary: "recent"})
	require.NoError(t, err)

	future := time.Now().UTC().Add(time.Hour)
	activity, err := b.Meta.RecentActivity(ctx, RecentActivityParams{Since: &future, HoursAgo: 24})
	require.NoError(t, err)
	assert.Empty(t, activity.Decisions, "since in the future must exclude everything even with hours_ago set")

	activity, err = b.Meta.RecentActivity(ctx, RecentActivityParams{HoursAgo: 24})
	require.NoError(t, err)
	assert.Len(t, activity.Decisions, 1)
}

func TestItemHistoryUnknownType(t *testing.T) {
	b, _ := newTestBundle(t)
	_, err := b.Meta.ItemHistory(context.Background(), "unknown", types.HistoryFilter{})
	assert.True(t, stderrors.IsValidation(err))
}

func TestDiffContextVersions(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	// Each update snapshots the pre-mutation content, so after three
	// updates version 2 holds {"x":1} and version 3 holds {"x":2,"y":3}.
	for _, content := range []types.ContextContent{
		{"x": float64(1)},
		{"x": float64(2), "y": float64(3)},
		{"done": true},
	} {
		_, err := b.Context.Update(ctx, sqlite.ContextActive, types.UpdateContextParams{Content: content})
		require.NoError(t, err)
	}

	ops, err := b.Meta.DiffContextVersions(ctx, sqlite.ContextActive, 2, 3)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, types.DiffOp{Op: "change", Path: []string{"x"}, Value: []interface{}{float64(1), float64(2)}}, ops[0])
	assert.Equal(t, types.DiffOp{Op: "add", Path: []string{"y"}, Value: float64(3)}, ops[1])
}

func TestDiffSameVersionIsEmpty(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Context.Update(ctx, sqlite.ContextActive, types.UpdateContextParams{
		Content: types.ContextContent{"x": float64(1)},
	})
	require.NoError(t, err)

	ops, err := b.Meta.DiffContextVersions(ctx, sqlite.ContextActive, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDiffMissingVersionNotFound(t *testing.T) {
	b, _ := newTestBundle(t)
	_, err := b.Meta.DiffContextVersions(context.Background(), sqlite.ContextActive, 1, 2)
	assert.True(t, stderrors.IsNotFound(err))
}

func TestSemanticSearchWithFilters(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	d, err := b.Decision.Log(ctx, types.LogDecisionParams{
		Summary: "use postgres for billing", Tags: []string{"db", "pg"},
	})
	require.NoError(t, err)
	_, err = b.Decision.Log(ctx, types.LogDecisionParams{
		Summary: "rewrite frontend in react", Tags: []string{"frontend"},
	})
	require.NoError(t, err)

	hits, err := b.Search.Semantic(ctx, types.SemanticSearchParams{
		QueryText: "postgres",
		ItemTypes: []string{types.ItemTypeDecision},
		TagsAny:   []string{"db"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, d.ID, hits[0].ItemID)
	assert.Equal(t, types.ItemTypeDecision, hits[0].ItemType)
}

func TestSemanticSearchEmptyWorkspace(t *testing.T) {
	b, _ := newTestBundle(t)

	hits, err := b.Search.Semantic(context.Background(), types.SemanticSearchParams{
		QueryText: "anything", TopK: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotNil(t, hits)
}

func TestSemanticSearchTopKBounds(t *testing.T) {
	b, _ := newTestBundle(t)
	_, err := b.Search.Semantic(context.Background(), types.SemanticSearchParams{
		QueryText: "q", TopK: 26,
	})
	assert.True(t, stderrors.IsValidation(err))
}

func TestSemanticSearchSkipsStaleEmbeddings(t *testing.T) {
	b, ws := newTestBundle(t)
	ctx := context.Background()

	d, err := b.Decision.Log(ctx, types.LogDecisionParams{Summary: "will vanish"})
	require.NoError(t, err)

	// Delete the relational row behind the registry's back so the
	// embedding goes stale, as after a crash between the two writes.
	_, err = ws.Store.DB().ExecContext(ctx, "DELETE FROM decisions WHERE id = ?", d.ID)
	require.NoError(t, err)

	hits, err := b.Search.Semantic(ctx, types.SemanticSearchParams{QueryText: "vanish"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestExportImportRoundTrip(t *testing.T) {
	b, ws := newTestBundle(t)
	ctx := context.Background()

	_, err := b.Decision.Log(ctx, types.LogDecisionParams{
		Summary:               "adopt message queue",
		Rationale:             "decouple producers from consumers",
		ImplementationDetails: "start with a single broker",
		Tags:                  []string{"infra", "async"},
	})
	require.NoError(t, err)
	_, err = b.Decision.Log(ctx, types.LogDecisionParams{Summary: "no rationale on this one"})
	require.NoError(t, err)

	exported, err := b.IO.Export(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "success", exported.Status)
	require.Len(t, exported.FilesCreated, 1)
	assert.FileExists(t, filepath.Join(ws.Paths.Root, config.ExportDirName, "decisions.md"))

	// Import into a fresh workspace that shares the export directory.
	b2, ws2 := newTestBundle(t)
	src := filepath.Join(ws.Paths.Root, config.ExportDirName, "decisions.md")
	dstDir := filepath.Join(ws2.Paths.Root, config.ExportDirName)
	require.NoError(t, os.MkdirAll(dstDir, 0o755))
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dstDir, "decisions.md"), data, 0o644))

	imported, err := b2.IO.Import(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "completed", imported.Status)
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, 0, imported.Failed)

	decisions, err := b2.Decision.List(ctx, types.DecisionFilter{})
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	summaries := []string{decisions[0].Summary, decisions[1].Summary}
	assert.Contains(t, summaries, "adopt message queue")
	assert.Contains(t, summaries, "no rationale on this one")
	for _, d := range decisions {
		if d.Summary == "adopt message queue" {
			assert.Equal(t, "decouple producers from consumers", d.Rationale)
			assert.Equal(t, []string{"infra", "async"}, d.Tags)
		}
	}
}

func TestExportEmptyWorkspaceWritesNothing(t *testing.T) {
	b, ws := newTestBundle(t)

	result, err := b.IO.Export(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Empty(t, result.FilesCreated)
	assert.NoFileExists(t, filepath.Join(ws.Paths.Root, config.ExportDirName, "decisions.md"))
}

func TestImportMissingFile(t *testing.T) {
	b, _ := newTestBundle(t)

	result, err := b.IO.Import(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "decisions.md not found", result.Error)
}

func TestUpdateProgressRefreshesEmbedding(t *testing.T) {
	b, _ := newTestBundle(t)
	ctx := context.Background()

	e, err := b.Progress.Log(ctx, types.LogProgressParams{Status: "TODO", Description: "ship the exporter"})
	require.NoError(t, err)

	done := "DONE"
	_, err = b.Progress.Update(ctx, types.UpdateProgressParams{ProgressID: e.ID, Status: &done})
	require.NoError(t, err)

	hits, err := b.Search.Semantic(ctx, types.SemanticSearchParams{QueryText: "Progress DONE: ship the exporter"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, e.ID, hits[0].ItemID)
}
