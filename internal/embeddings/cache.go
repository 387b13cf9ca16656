package embeddings

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachedService fronts another Service with an LRU text→vector cache.
// Concurrent requests for the same uncached text collapse into a single
// upstream call.
type CachedService struct {
	inner    Service
	capacity int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element

	group singleflight.Group
}

type cacheEntry struct {
	text string
	vec  []float32
}

// NewCached wraps inner with an LRU cache of the given capacity.
func NewCached(inner Service, capacity int) *CachedService {
	return &CachedService{
		inner:    inner,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *CachedService) Generate(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lookup(text); ok {
		return vec, nil
	}

	v, err, _ := c.group.Do(text, func() (interface{}, error) {
		if vec, ok := c.lookup(text); ok {
			return vec, nil
		}
		vec, err := c.inner.Generate(ctx, text)
		if err != nil {
			return nil, err
		}
		c.store(text, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

func (c *CachedService) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := c.lookup(text); ok {
			out[i] = vec
		} else {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.inner.GenerateBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		c.store(missing[j], vec)
		out[missingIdx[j]] = vec
	}
	return out, nil
}

func (c *CachedService) Dimensions() int { return c.inner.Dimensions() }

func (c *CachedService) Model() string { return c.inner.Model() }

func (c *CachedService) lookup(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).vec, true
}

func (c *CachedService) store(text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[text]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).vec = vec
		return
	}
	c.entries[text] = c.order.PushFront(&cacheEntry{text: text, vec: vec})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).text)
	}
}
