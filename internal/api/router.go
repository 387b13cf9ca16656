// Package api provides the HTTP surface mirroring the tool set. Every
// route lives under /workspaces/{workspaceID} where the path component
// is the URL-safe base64 encoding of the workspace identifier.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"novaport-mcp/internal/embeddings"
	"novaport-mcp/internal/logging"
	"novaport-mcp/internal/workspace"
)

// Router owns the HTTP routing table and the per-request workspace
// resolution.
type Router struct {
	mux             *chi.Mux
	registry        *workspace.Registry
	embedder        embeddings.Service
	maxRequestBytes int64
	logger          logging.Logger
}

// NewRouter builds the routing table. The registry and embedder are
// shared with the stdio transport when both run in one process.
func NewRouter(registry *workspace.Registry, embedder embeddings.Service, maxRequestBytes int64) *Router {
	r := &Router{
		mux:             chi.NewRouter(),
		registry:        registry,
		embedder:        embedder,
		maxRequestBytes: maxRequestBytes,
		logger:          logging.WithComponent("api"),
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler { return r.mux }

func (r *Router) setupMiddleware() {
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(chimiddleware.RequestSize(r.maxRequestBytes))
	r.mux.Use(r.traceMiddleware)
}

func (r *Router) setupRoutes() {
	r.mux.Get("/healthz", r.handleHealth)

	r.mux.Route("/workspaces/{workspaceID}", func(mux chi.Router) {
		mux.Use(r.workspaceMiddleware)

		mux.Route("/context/{contextKind}", func(mux chi.Router) {
			mux.Get("/", r.handleGetContext)
			mux.Put("/", r.handleUpdateContext)
			mux.Get("/history", r.handleContextHistory)
			mux.Get("/diff", r.handleContextDiff)
		})

		mux.Route("/decisions", func(mux chi.Router) {
			mux.Post("/", r.handleLogDecision)
			mux.Get("/", r.handleListDecisions)
			mux.Get("/search", r.handleSearchDecisions)
			mux.Delete("/{id}", r.handleDeleteDecision)
		})

		mux.Route("/progress", func(mux chi.Router) {
			mux.Post("/", r.handleLogProgress)
			mux.Get("/", r.handleListProgress)
			mux.Patch("/{id}", r.handleUpdateProgress)
			mux.Delete("/{id}", r.handleDeleteProgress)
		})

		mux.Route("/patterns", func(mux chi.Router) {
			mux.Post("/", r.handleLogPattern)
			mux.Get("/", r.handleListPatterns)
			mux.Delete("/{id}", r.handleDeletePattern)
		})

		mux.Route("/custom-data", func(mux chi.Router) {
			mux.Put("/", r.handleLogCustomData)
			mux.Get("/", r.handleGetCustomData)
			mux.Get("/search", r.handleSearchCustomData)
			mux.Delete("/{category}/{key}", r.handleDeleteCustomData)
		})
		mux.Get("/glossary/search", r.handleSearchGlossary)

		mux.Route("/links", func(mux chi.Router) {
			mux.Post("/", r.handleCreateLink)
			mux.Get("/", r.handleListLinks)
		})

		mux.Post("/items/batch", r.handleBatchLogItems)
		mux.Get("/activity/recent", r.handleRecentActivity)
		mux.Post("/search/semantic", r.handleSemanticSearch)
		mux.Post("/export", r.handleExport)
		mux.Post("/import", r.handleImport)
	})
}
