// Package taxonomy holds the process-local, lazily refreshed view of the
// stored taxonomy.
package taxonomy

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/logging"
	"github.com/hejijunhao/taxon/internal/model"
	"github.com/hejijunhao/taxon/internal/store"
)

// DefaultTTL is how long a snapshot is served before a lazy reload.
const DefaultTTL = 30 * time.Minute

// Cache serves taxonomy snapshots. A miss, an expired snapshot, an
// invalidation or a forced reload triggers a synchronous reload from the
// store; concurrent callers may reload redundantly. When a reload fails the
// previous snapshot keeps being served.
type Cache struct {
	store  store.Reader
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the snapshot lifetime. Default: DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates an empty cache over r. Nothing is loaded until Get.
func NewCache(r store.Reader, opts ...Option) *Cache {
	c := &Cache{store: r, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

// Get returns the current snapshot, reloading first when forceReload is
// set or the snapshot is missing, expired or invalidated. It fails with
// TAXONOMY_UNAVAILABLE only when a reload fails and no snapshot was ever
// loaded.
func (c *Cache) Get(ctx context.Context, forceReload bool) (*Snapshot, error) {
	snap := c.current.Load()
	if !forceReload && c.fresh(snap) {
		return snap, nil
	}

	gen := c.generation.Load()
	next, err := c.load(ctx, gen)
	if err != nil {
		if snap != nil {
			c.logger.Warn("taxonomy reload failed, serving stale snapshot",
				"version", snap.Version, "loaded_at", snap.LoadedAt, "err", err)
			return snap, nil
		}
		return nil, domainerrors.TaxonomyUnavailable(err)
	}

	c.publish(next)
	c.logger.Info("taxonomy loaded",
		"version", next.Version,
		"departments", len(next.Departments),
		"keywords", len(next.Keywords),
		"problems", len(next.Problems))
	return next, nil
}

// Invalidate marks the current snapshot stale. It stays available as the
// fail-open fallback until a reload succeeds.
func (c *Cache) Invalidate() {
	c.generation.Add(1)
}

func (c *Cache) fresh(s *Snapshot) bool {
	return s != nil &&
		s.generation == c.generation.Load() &&
		c.now().Before(s.ExpiresAt)
}

// publish swaps in next unless a snapshot from a later generation is
// already published.
func (c *Cache) publish(next *Snapshot) {
	for {
		cur := c.current.Load()
		if cur != nil && cur.generation > next.generation {
			return
		}
		if c.current.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (c *Cache) load(ctx context.Context, gen uint64) (*Snapshot, error) {
	var (
		meta  model.Meta
		depts []model.Department
		kws   []model.Keyword
		pbs   []model.Problem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		meta, err = c.store.Meta(gctx)
		return err
	})
	g.Go(func() (err error) {
		depts, err = c.store.Departments(gctx)
		return err
	})
	g.Go(func() (err error) {
		kws, err = c.store.Keywords(gctx)
		return err
	})
	g.Go(func() (err error) {
		pbs, err = c.store.Problems(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := NewSnapshot(meta, depts, kws, pbs, c.now(), c.ttl)
	snap.generation = gen
	return snap, nil
}

func sortDepartments(depts []model.Department) {
	sort.SliceStable(depts, func(i, j int) bool { return depts[i].Order < depts[j].Order })
}
