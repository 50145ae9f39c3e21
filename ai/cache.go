package ai

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
)

// CachingEmbedder memoizes single-text embeddings in a bounded in-memory
// cache. Batch calls pass straight through; they come from indexing, where
// every text is different.
type CachingEmbedder struct {
	next  Embedder
	cache *ristretto.Cache[string, []float32]
}

var _ Embedder = (*CachingEmbedder)(nil)

// NewCachingEmbedder wraps next with a cache holding up to size embeddings.
func NewCachingEmbedder(next Embedder, size int64) (*CachingEmbedder, error) {
	if next == nil {
		return nil, errors.New("embedder is required")
	}
	if size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters:        size * 10,
		MaxCost:            size, // cost counts entries, not bytes
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &CachingEmbedder{next: next, cache: cache}, nil
}

// cacheKey folds case and whitespace so equivalent queries share an entry.
func cacheKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// EmbedText returns the cached embedding for text or computes and stores it.
// Failed and empty embeddings are never cached.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := c.cache.Get(key); ok {
		return slices.Clone(v), nil
	}

	v, err := c.next.EmbedText(ctx, text)
	if err != nil || len(v) == 0 {
		return v, err
	}
	c.cache.Set(key, slices.Clone(v), 1)
	return v, nil
}

// EmbedTexts delegates to the wrapped embedder.
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedTexts(ctx, texts)
}

// Wait blocks until pending cache writes are visible.
func (c *CachingEmbedder) Wait() {
	c.cache.Wait()
}

// Close stops the cache's background goroutines.
func (c *CachingEmbedder) Close() {
	c.cache.Close()
}
