package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"novaport-mcp/internal/config"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/logging"
	"novaport-mcp/internal/services"
)

type contextKey string

const bundleKey contextKey = "workspace_bundle"

// traceMiddleware assigns every request a trace ID and logs the
// request line with its outcome.
func (r *Router) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		traceID := logging.NewTraceID()
		ctx := logging.WithTrace(req.Context(), traceID)
		w.Header().Set("X-Trace-ID", traceID)

		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, req.WithContext(ctx))

		r.logger.InfoContext(ctx, "http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", wrapper.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// workspaceMiddleware decodes the base64 workspace path component,
// acquires the workspace and stashes a service bundle in the request
// context. A malformed encoding is a transport error (400).
func (r *Router) workspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		encoded := chi.URLParam(req, "workspaceID")
		workspaceID, err := config.DecodeWorkspaceID(encoded)
		if err != nil {
			writeError(w, stderrors.NewTransport(err.Error()))
			return
		}
		ws, err := r.registry.Acquire(req.Context(), workspaceID)
		if err != nil {
			writeError(w, err)
			return
		}
		bundle := services.NewBundle(ws, r.embedder)
		ctx := context.WithValue(req.Context(), bundleKey, bundle)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// bundle pulls the service bundle resolved by workspaceMiddleware.
func bundle(req *http.Request) *services.Bundle {
	return req.Context().Value(bundleKey).(*services.Bundle)
}

// statusWriter captures the status code for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
