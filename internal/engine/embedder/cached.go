package embedder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cached memoizes another Embedder. Entries expire after ttl; the cache
// holds at most size vectors. Failures are never cached.
type Cached struct {
	next  Embedder
	cache *ristretto.Cache[string, []float32]
	ttl   time.Duration
}

var _ Embedder = (*Cached)(nil)

// NewCached wraps next.
func NewCached(next Embedder, size int, ttl time.Duration) (*Cached, error) {
	if size <= 0 {
		return nil, fmt.Errorf("embedder: cache size must be positive, got %d", size)
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters:        int64(size) * 10,
		MaxCost:            int64(size),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: cache: %w", err)
	}
	return &Cached{next: next, cache: c, ttl: ttl}, nil
}

func cacheKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Embed returns a copy of the memoized vector, calling the wrapped
// provider on a miss.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return append([]float32(nil), vec...), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(key, append([]float32(nil), vec...), 1, c.ttl)
	return vec, nil
}

func (c *Cached) Dim() int      { return c.next.Dim() }
func (c *Cached) Model() string { return c.next.Model() }

// Close stops the cache and closes the wrapped provider when it is an
// io.Closer.
func (c *Cached) Close() error {
	c.cache.Close()
	if cl, ok := c.next.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
