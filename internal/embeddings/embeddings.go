// Package embeddings turns text into fixed-dimensional vectors for the
// per-workspace vector store. The model is loaded once lazily and shared
// read-only across all workspaces.
package embeddings

import (
	"context"
	"fmt"
	"sync"

	"novaport-mcp/internal/config"
)

// Service produces embeddings for text.
type Service interface {
	// Generate embeds a single text.
	Generate(ctx context.Context, text string) ([]float32, error)
	// GenerateBatch embeds several texts, preserving order.
	GenerateBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the fixed vector width.
	Dimensions() int
	// Model names the underlying model.
	Model() string
}

// New constructs the configured provider wrapped in an LRU cache.
func New(cfg config.EmbeddingsConfig) (Service, error) {
	var inner Service
	switch cfg.Provider {
	case "local":
		inner = NewLocal(cfg.Dimensions)
	case "openai":
		inner = NewOpenAI(cfg.OpenAIKey, cfg.Model, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %q", cfg.Provider)
	}
	if cfg.CacheSize > 0 {
		inner = NewCached(inner, cfg.CacheSize)
	}
	return inner, nil
}

// Lazy defers provider construction until the first embedding request.
// Concurrent first calls perform exactly one construction.
type Lazy struct {
	cfg  config.EmbeddingsConfig
	once sync.Once
	svc  Service
	err  error
}

// NewLazy wraps the configuration without touching the provider.
func NewLazy(cfg config.EmbeddingsConfig) *Lazy {
	return &Lazy{cfg: cfg}
}

func (l *Lazy) service() (Service, error) {
	l.once.Do(func() {
		l.svc, l.err = New(l.cfg)
	})
	return l.svc, l.err
}

func (l *Lazy) Generate(ctx context.Context, text string) ([]float32, error) {
	svc, err := l.service()
	if err != nil {
		return nil, err
	}
	return svc.Generate(ctx, text)
}

func (l *Lazy) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	svc, err := l.service()
	if err != nil {
		return nil, err
	}
	return svc.GenerateBatch(ctx, texts)
}

func (l *Lazy) Dimensions() int { return l.cfg.Dimensions }

func (l *Lazy) Model() string { return l.cfg.Model }
