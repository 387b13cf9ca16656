package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaport-mcp/internal/config"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/pkg/types"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(config.DefaultConfig().Database, 64)
	t.Cleanup(r.Close)
	return r
}

func TestAcquireCreatesLayout(t *testing.T) {
	r := newTestRegistry(t)
	root := t.TempDir()

	ws, err := r.Acquire(context.Background(), root)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, ".novaport_data", "conport.db"))
	assert.FileExists(t, filepath.Join(root, ".novaport_data", "vectordb", "vectors.db"))
	assert.Equal(t, root, ws.ID)
}

func TestAcquireRejectsEmptyID(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Acquire(context.Background(), "")
	assert.True(t, stderrors.IsValidation(err))
}

func TestAcquireCachesHandle(t *testing.T) {
	r := newTestRegistry(t)
	root := t.TempDir()

	first, err := r.Acquire(context.Background(), root)
	require.NoError(t, err)
	second, err := r.Acquire(context.Background(), root)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestConcurrentAcquireInitializesOnce(t *testing.T) {
	r := newTestRegistry(t)
	root := t.TempDir()

	const n = 16
	handles := make([]*Workspace, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws, err := r.Acquire(context.Background(), root)
			require.NoError(t, err)
			handles[i] = ws
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, handles[0], handles[i], "all callers must observe the same handle")
	}
}

func TestWorkspaceIsolation(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	w1, err := r.Acquire(ctx, t.TempDir())
	require.NoError(t, err)
	w2, err := r.Acquire(ctx, t.TempDir())
	require.NoError(t, err)

	_, err = w1.Store.InsertDecision(ctx, types.LogDecisionParams{Summary: "only in w1"})
	require.NoError(t, err)

	fromW2, err := w2.Store.ListDecisions(ctx, types.DecisionFilter{})
	require.NoError(t, err)
	assert.Empty(t, fromW2)
}

func TestReleaseAllowsReacquire(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	root := t.TempDir()

	first, err := r.Acquire(ctx, root)
	require.NoError(t, err)
	_, err = first.Store.InsertDecision(ctx, types.LogDecisionParams{Summary: "survives release"})
	require.NoError(t, err)

	r.Release(root)

	reopened, err := r.Acquire(ctx, root)
	require.NoError(t, err)
	assert.NotSame(t, first, reopened)

	decisions, err := reopened.Store.ListDecisions(ctx, types.DecisionFilter{})
	require.NoError(t, err)
	assert.Len(t, decisions, 1)
}

func TestAcquireFailureLeavesNoHandle(t *testing.T) {
	r := newTestRegistry(t)

	// A file where the workspace directory should be makes MkdirAll fail.
	root := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(root, []byte("file"), 0o600))

	_, err := r.Acquire(context.Background(), root)
	require.Error(t, err)

	r.mu.RLock()
	_, cached := r.handles[root]
	r.mu.RUnlock()
	assert.False(t, cached)
}
