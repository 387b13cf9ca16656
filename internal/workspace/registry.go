// Package workspace manages per-workspace resources: lazy first-touch
// initialization of the relational and vector stores, cached handles,
// and per-workspace init locks so concurrent requests perform exactly
// one initialization.
package workspace

import (
	"context"
	"os"
	"sync"

	"novaport-mcp/internal/config"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/logging"
	"novaport-mcp/internal/storage/sqlite"
	"novaport-mcp/internal/storage/vector"
)

// Workspace bundles one workspace's open resources.
type Workspace struct {
	ID      string
	Paths   config.WorkspacePaths
	Store   *sqlite.Store
	Vectors *vector.Collection
}

// Registry owns the process-wide workspace handle cache.
type Registry struct {
	dbOpts config.DatabaseConfig
	dims   int
	logger logging.Logger

	mu        sync.RWMutex
	handles   map[string]*Workspace
	initLocks map[string]*sync.Mutex
}

// NewRegistry creates an empty registry. dims is the embedding width
// used for new vector collections.
func NewRegistry(dbOpts config.DatabaseConfig, dims int) *Registry {
	return &Registry{
		dbOpts:    dbOpts,
		dims:      dims,
		logger:    logging.WithComponent("registry"),
		handles:   make(map[string]*Workspace),
		initLocks: make(map[string]*sync.Mutex),
	}
}

// Acquire returns the workspace handle, initializing storage on first
// touch. Handles live for the process lifetime.
func (r *Registry) Acquire(ctx context.Context, workspaceID string) (*Workspace, error) {
	if workspaceID == "" {
		return nil, stderrors.ErrWorkspaceIDRequired
	}

	r.mu.RLock()
	ws := r.handles[workspaceID]
	r.mu.RUnlock()
	if ws != nil {
		return ws, nil
	}

	lock := r.initLock(workspaceID)
	lock.Lock()
	defer lock.Unlock()

	// Double-check after waiting on the init lock: another request may
	// have finished the initialization meanwhile.
	r.mu.RLock()
	ws = r.handles[workspaceID]
	r.mu.RUnlock()
	if ws != nil {
		return ws, nil
	}

	ws, err := r.initialize(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.handles[workspaceID] = ws
	r.mu.Unlock()
	return ws, nil
}

// initLock returns the per-workspace init mutex, creating it on demand.
// Lock objects are tiny and live for the process lifetime.
func (r *Registry) initLock(workspaceID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.initLocks[workspaceID]
	if !ok {
		lock = &sync.Mutex{}
		r.initLocks[workspaceID] = lock
	}
	return lock
}

// initialize builds the on-disk layout and opens both stores, tearing
// down partial state on failure so a retry starts from scratch.
func (r *Registry) initialize(ctx context.Context, workspaceID string) (*Workspace, error) {
	paths := config.PathsFor(workspaceID)

	if err := os.MkdirAll(paths.VectorDir, 0o755); err != nil {
		return nil, stderrors.NewInternal("create workspace data directory", err)
	}

	store, err := sqlite.Open(ctx, paths.Database, sqlite.Options{
		BusyTimeout:  r.dbOpts.BusyTimeout,
		MaxOpenConns: r.dbOpts.MaxOpenConns,
		MaxIdleConns: r.dbOpts.MaxIdleConns,
	})
	if err != nil {
		return nil, stderrors.NewInternal("initialize relational store", err)
	}

	vectors, err := vector.Open(ctx, paths.VectorDB, r.dims)
	if err != nil {
		_ = store.Close()
		return nil, stderrors.NewInternal("initialize vector store", err)
	}

	r.logger.InfoContext(ctx, "workspace initialized", "workspace_id", workspaceID)
	return &Workspace{ID: workspaceID, Paths: paths, Store: store, Vectors: vectors}, nil
}

// Release closes and forgets one workspace's handles. Driven by tests
// and the teardown tool; normal operation keeps handles cached.
func (r *Registry) Release(workspaceID string) {
	r.mu.Lock()
	ws := r.handles[workspaceID]
	delete(r.handles, workspaceID)
	r.mu.Unlock()
	if ws == nil {
		return
	}
	_ = ws.Store.Close()
	_ = ws.Vectors.Close()
}

// Close releases every cached workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*Workspace)
	r.mu.Unlock()
	for _, ws := range handles {
		_ = ws.Store.Close()
		_ = ws.Vectors.Close()
	}
}
