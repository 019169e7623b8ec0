package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hejijunhao/taxon/internal/config"
	"github.com/hejijunhao/taxon/internal/engine/compactor"
	"github.com/hejijunhao/taxon/internal/engine/dedup"
	"github.com/hejijunhao/taxon/internal/engine/embedder"
	"github.com/hejijunhao/taxon/internal/engine/expander"
	"github.com/hejijunhao/taxon/internal/engine/mutator"
	"github.com/hejijunhao/taxon/internal/engine/retriever"
	"github.com/hejijunhao/taxon/internal/engine/taxonomy"
	"github.com/hejijunhao/taxon/internal/logging"
	"github.com/hejijunhao/taxon/internal/model"
	"github.com/hejijunhao/taxon/internal/store"
)

const tracerName = "taxon/engine"

// Config holds the engine's tunables.
type Config struct {
	Params             retriever.Params
	DuplicateThreshold float64
	CacheTTL           time.Duration
	CallTimeout        time.Duration // per embedding or store call; 0 disables
	BatchConcurrency   int
	// MaxInputTokens caps the estimated size of an expanded query; 0 disables.
	MaxInputTokens int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Params:             retriever.DefaultParams(),
		DuplicateThreshold: dedup.DefaultThreshold,
		CacheTTL:           taxonomy.DefaultTTL,
		CallTimeout:        10 * time.Second,
		BatchConcurrency:   4,
		MaxInputTokens:     8000,
	}
}

// ConfigFrom maps environment configuration onto engine settings.
func ConfigFrom(c config.EngineConfig) Config {
	return Config{
		Params: retriever.Params{
			TopN:             c.TopN,
			KeywordThreshold: c.KeywordThreshold,
			ProblemThreshold: c.ProblemThreshold,
			KeywordFloor:     c.KeywordFloor,
			ProblemFloor:     c.ProblemFloor,
			MinCandidates:    c.MinCandidates,
		},
		DuplicateThreshold: c.DuplicateThreshold,
		CacheTTL:           c.CacheTTL,
		CallTimeout:        c.CallTimeout,
		BatchConcurrency:   c.BatchConcurrency,
		MaxInputTokens:     c.MaxInputTokens,
	}
}

// Engine orchestrates the expand → embed → retrieve pipeline and the
// taxonomy mutations that feed it.
type Engine struct {
	store     store.Store
	embedder  embedder.Embedder
	cache     *taxonomy.Cache
	expander  *expander.Expander
	retriever *retriever.Retriever
	detector  *dedup.Detector
	mutator   *mutator.Mutator
	cfg       Config
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	tp       trace.TracerProvider
	now      func() time.Time
	expander *expander.Expander
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider sets the tracer provider. Default: the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithClock overrides the time source for cache expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithExpander replaces the built-in hotel dictionary.
func WithExpander(x *expander.Expander) Option {
	return func(o *options) { o.expander = x }
}

// New wires an Engine over s and emb.
func New(s store.Store, emb embedder.Embedder, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 1
	}

	o := options{tp: otel.GetTracerProvider(), now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	logger := logging.OrDefault(o.logger)
	if o.expander == nil {
		o.expander = expander.Default()
	}

	cache := taxonomy.NewCache(s,
		taxonomy.WithTTL(cfg.CacheTTL),
		taxonomy.WithClock(o.now),
		taxonomy.WithLogger(logger),
	)
	det := dedup.New(dedup.Config{Threshold: cfg.DuplicateThreshold}, cache, emb)
	mut := mutator.New(s, cache, det, emb,
		mutator.WithCallTimeout(cfg.CallTimeout),
		mutator.WithClock(o.now),
		mutator.WithLogger(logger),
	)

	return &Engine{
		store:     s,
		embedder:  emb,
		cache:     cache,
		expander:  o.expander,
		retriever: retriever.New(cfg.Params),
		detector:  det,
		mutator:   mut,
		cfg:       cfg,
		tracer:    o.tp.Tracer(tracerName),
		logger:    logger,
	}, nil
}

// RetrieveOption adjusts a single Retrieve call.
type RetrieveOption func(*retrieveOptions)

type retrieveOptions struct {
	forceReload bool
	topN        int
}

// WithForceReload reloads the taxonomy before scoring.
func WithForceReload() RetrieveOption {
	return func(o *retrieveOptions) { o.forceReload = true }
}

// WithTopN overrides the per-category candidate limit.
func WithTopN(n int) RetrieveOption {
	return func(o *retrieveOptions) { o.topN = n }
}

// Retrieve returns the ranked keyword and problem candidates for a
// feedback fragment. Empty text yields an empty result.
func (e *Engine) Retrieve(ctx context.Context, text string, opts ...RetrieveOption) (model.ClassificationCandidates, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Retrieve")
	defer span.End()

	out, err := e.retrieve(ctx, text, opts...)
	if err != nil {
		fail(span, err)
		return model.ClassificationCandidates{}, err
	}
	span.SetAttributes(
		attribute.Int("taxonomy.version", out.TaxonomyVersion),
		attribute.Int("keyword_candidates", len(out.KeywordCandidates)),
		attribute.Int("problem_candidates", len(out.ProblemCandidates)),
		attribute.String("recall_method", string(out.RecallMethod)),
	)
	return out, nil
}

func (e *Engine) retrieve(ctx context.Context, text string, opts ...RetrieveOption) (model.ClassificationCandidates, error) {
	var o retrieveOptions
	for _, fn := range opts {
		fn(&o)
	}

	expanded := compactor.Truncate(e.expander.Expand(text), e.cfg.MaxInputTokens)

	var vec []float32
	if expanded != "" {
		var err error
		if vec, err = e.embed(ctx, expanded); err != nil {
			return model.ClassificationCandidates{}, err
		}
	}

	snap, err := e.snapshot(ctx, o.forceReload)
	if err != nil {
		return model.ClassificationCandidates{}, err
	}

	r := e.retriever
	if o.topN > 0 && o.topN != e.cfg.Params.TopN {
		p := e.cfg.Params
		p.TopN = o.topN
		r = retriever.New(p)
	}
	out, err := r.Retrieve(vec, snap)
	if err != nil {
		return model.ClassificationCandidates{}, err
	}

	e.logger.Debug("candidates retrieved",
		"version", out.TaxonomyVersion,
		"keywords", len(out.KeywordCandidates),
		"problems", len(out.ProblemCandidates),
		"recall_method", out.RecallMethod)
	return out, nil
}

// RetrieveBatch runs Retrieve over texts with bounded concurrency. Results
// are in input order; any failure fails the whole batch.
func (e *Engine) RetrieveBatch(ctx context.Context, texts []string, opts ...RetrieveOption) ([]model.ClassificationCandidates, error) {
	ctx, span := e.tracer.Start(ctx, "engine.RetrieveBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(texts))))
	defer span.End()

	results := make([]model.ClassificationCandidates, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.BatchConcurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			out, err := e.retrieve(gctx, text, opts...)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fail(span, err)
		return nil, err
	}
	return results, nil
}

// CreateKeyword admits a new keyword. See mutator.Mutator.CreateKeyword.
func (e *Engine) CreateKeyword(ctx context.Context, in mutator.KeywordInput, createdBy string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "engine.CreateKeyword",
		trace.WithAttributes(attribute.String("department", in.DepartmentID)))
	defer span.End()

	kwID, err := e.mutator.CreateKeyword(ctx, in, createdBy)
	if err != nil {
		fail(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("id", kwID))
	return kwID, nil
}

// CreateProblem admits a new problem. See mutator.Mutator.CreateProblem.
func (e *Engine) CreateProblem(ctx context.Context, in mutator.ProblemInput, createdBy string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "engine.CreateProblem")
	defer span.End()

	pbID, err := e.mutator.CreateProblem(ctx, in, createdBy)
	if err != nil {
		fail(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("id", pbID))
	return pbID, nil
}

// FindDuplicates lists the active entities a proposed label collides
// with, best match first.
func (e *Engine) FindDuplicates(ctx context.Context, label string, kind model.Kind, departmentID string) ([]model.Duplicate, error) {
	ctx, span := e.tracer.Start(ctx, "engine.FindDuplicates")
	defer span.End()

	ctx, cancel := e.callContext(ctx)
	defer cancel()
	dups, err := e.detector.FindDuplicates(ctx, label, kind, departmentID)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("duplicates", len(dups)))
	return dups, nil
}

// ArchiveKeyword retires a keyword.
func (e *Engine) ArchiveKeyword(ctx context.Context, kwID, by string) error {
	return e.traced(ctx, "engine.ArchiveKeyword", func(ctx context.Context) error {
		return e.mutator.ArchiveKeyword(ctx, kwID, by)
	})
}

// ArchiveProblem retires a problem.
func (e *Engine) ArchiveProblem(ctx context.Context, pbID, by string) error {
	return e.traced(ctx, "engine.ArchiveProblem", func(ctx context.Context) error {
		return e.mutator.ArchiveProblem(ctx, pbID, by)
	})
}

// MarkDuplicate archives entityID in favor of canonicalID.
func (e *Engine) MarkDuplicate(ctx context.Context, kind model.Kind, entityID, canonicalID, by string) error {
	return e.traced(ctx, "engine.MarkDuplicate", func(ctx context.Context) error {
		return e.mutator.MarkDuplicate(ctx, kind, entityID, canonicalID, by)
	})
}

// CreateProposal records a suggested label for later review.
func (e *Engine) CreateProposal(ctx context.Context, in mutator.ProposalInput, createdBy string) (string, error) {
	var propID string
	err := e.traced(ctx, "engine.CreateProposal", func(ctx context.Context) error {
		var err error
		propID, err = e.mutator.CreateProposal(ctx, in, createdBy)
		return err
	})
	return propID, err
}

// SeedDepartments writes the default departments into an empty store.
func (e *Engine) SeedDepartments(ctx context.Context, by string) (int, error) {
	var n int
	err := e.traced(ctx, "engine.SeedDepartments", func(ctx context.Context) error {
		var err error
		n, err = e.mutator.SeedDepartments(ctx, by)
		return err
	})
	return n, err
}

// InvalidateCache forces the next read to reload the taxonomy.
func (e *Engine) InvalidateCache() {
	e.cache.Invalidate()
}

// Stats summarizes the served taxonomy.
type Stats struct {
	Version          int               `json:"version"`
	EmbeddingModel   string            `json:"embedding_model"`
	ProviderModel    string            `json:"provider_model"`
	Departments      int               `json:"departments"`
	Coverage         taxonomy.Coverage `json:"coverage"`
	PendingProposals int               `json:"pending_proposals"`
	LoadedAt         time.Time         `json:"loaded_at"`
	ExpiresAt        time.Time         `json:"expires_at"`
}

// Stats reports the cached taxonomy's version, counts and embedding
// coverage.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Stats")
	defer span.End()

	snap, err := e.snapshot(ctx, false)
	if err != nil {
		fail(span, err)
		return Stats{}, err
	}

	pctx, cancel := e.callContext(ctx)
	defer cancel()
	proposals, err := e.store.Proposals(pctx)
	if err != nil {
		fail(span, err)
		return Stats{}, err
	}
	pending := 0
	for _, p := range proposals {
		if p.Status == model.ProposalPending {
			pending++
		}
	}

	return Stats{
		Version:          snap.Version,
		EmbeddingModel:   snap.Meta.EmbeddingModel,
		ProviderModel:    e.embedder.Model(),
		Departments:      len(snap.Departments),
		Coverage:         snap.Coverage(),
		PendingProposals: pending,
		LoadedAt:         snap.LoadedAt,
		ExpiresAt:        snap.ExpiresAt,
	}, nil
}

func (e *Engine) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, embedder.Classify(err)
	}
	if err := embedder.Verify(e.embedder, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *Engine) snapshot(ctx context.Context, force bool) (*taxonomy.Snapshot, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()
	return e.cache.Get(ctx, force)
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.CallTimeout)
}

func (e *Engine) traced(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		fail(span, err)
		return err
	}
	return nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
