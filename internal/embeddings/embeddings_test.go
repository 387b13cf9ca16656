package embeddings

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaport-mcp/internal/config"
)

func TestLocalDeterministic(t *testing.T) {
	svc := NewLocal(384)
	ctx := context.Background()

	a, err := svc.Generate(ctx, "Decision: use postgres for persistence")
	require.NoError(t, err)
	b, err := svc.Generate(ctx, "Decision: use postgres for persistence")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 384)
}

func TestLocalNormalized(t *testing.T) {
	svc := NewLocal(64)
	vec, err := svc.Generate(context.Background(), "some text to embed")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestLocalSimilarTextsCloser(t *testing.T) {
	svc := NewLocal(384)
	ctx := context.Background()

	base, _ := svc.Generate(ctx, "postgres database migration strategy")
	near, _ := svc.Generate(ctx, "database migration strategy for postgres")
	far, _ := svc.Generate(ctx, "frontend button color palette")

	assert.Greater(t, dot(base, near), dot(base, far))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

type countingService struct {
	LocalService
	calls atomic.Int64
}

func (c *countingService) Generate(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.LocalService.Generate(ctx, text)
}

func TestCacheHits(t *testing.T) {
	inner := &countingService{LocalService: *NewLocal(32)}
	cached := NewCached(inner, 8)
	ctx := context.Background()

	first, err := cached.Generate(ctx, "repeated text")
	require.NoError(t, err)
	second, err := cached.Generate(ctx, "repeated text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCacheEviction(t *testing.T) {
	inner := &countingService{LocalService: *NewLocal(32)}
	cached := NewCached(inner, 2)
	ctx := context.Background()

	_, _ = cached.Generate(ctx, "a")
	_, _ = cached.Generate(ctx, "b")
	_, _ = cached.Generate(ctx, "c") // evicts "a"
	_, _ = cached.Generate(ctx, "a")

	assert.Equal(t, int64(4), inner.calls.Load())
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(config.EmbeddingsConfig{Provider: "mystery"})
	assert.Error(t, err)
}

func TestLazyBuildsOnce(t *testing.T) {
	lazy := NewLazy(config.EmbeddingsConfig{Provider: "local", Dimensions: 16, CacheSize: 4})

	vec, err := lazy.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
	assert.Equal(t, 16, lazy.Dimensions())
}
