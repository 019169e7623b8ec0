package taxon

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hejijunhao/taxon/internal/engine"
	"github.com/hejijunhao/taxon/internal/engine/embedder"
	"github.com/hejijunhao/taxon/internal/logging"
	"github.com/hejijunhao/taxon/internal/store"
)

// Taxon is a taxonomy retrieval and curation engine backed by a local
// store. Safe for concurrent use.
type Taxon struct {
	engine   *engine.Engine
	store    *store.DB
	embedder Embedder
	ownsEmb  bool
}

// New opens the store and embedding provider. Exactly one provider must
// be configured: WithEmbedder, WithOpenAI or WithModelDir.
func New(opts ...Option) (*Taxon, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrDefault(o.logger)

	emb, owned, err := resolveEmbedder(o)
	if err != nil {
		return nil, fmt.Errorf("taxon: %w", err)
	}

	db, err := store.Open(o.storePath, store.WithLogger(logger), store.WithSyncWrites(o.syncWrites))
	if err != nil {
		closeEmbedder(emb, owned)
		return nil, fmt.Errorf("taxon: %w", err)
	}

	engOpts := []engine.Option{engine.WithLogger(logger)}
	if o.tp != nil {
		engOpts = append(engOpts, engine.WithTracerProvider(o.tp))
	}
	eng, err := engine.New(db, emb, o.cfg, engOpts...)
	if err != nil {
		db.Close()
		closeEmbedder(emb, owned)
		return nil, fmt.Errorf("taxon: %w", err)
	}

	return &Taxon{engine: eng, store: db, embedder: emb, ownsEmb: owned}, nil
}

func resolveEmbedder(o options) (Embedder, bool, error) {
	configured := 0
	for _, set := range []bool{o.embedder != nil, o.openAIKey != "", o.modelDir != ""} {
		if set {
			configured++
		}
	}
	switch {
	case configured == 0:
		return nil, false, errors.New("no embedding provider configured")
	case configured > 1:
		return nil, false, errors.New("more than one embedding provider configured")
	case o.embedder != nil:
		return o.embedder, false, nil
	}

	var base Embedder
	if o.openAIKey != "" {
		base = embedder.NewOpenAI(embedder.OpenAIConfig{APIKey: o.openAIKey, Model: o.model, Dim: o.dim})
	} else {
		modelPath, vocabPath, projPath := modelPaths(o.modelDir)
		local, err := embedder.NewLocal(embedder.LocalConfig{
			ModelPath:      modelPath,
			VocabPath:      vocabPath,
			ProjectionPath: projPath,
		})
		if err != nil {
			return nil, false, err
		}
		base = local
	}
	if o.cacheSize <= 0 {
		return base, true, nil
	}
	cached, err := embedder.NewCached(base, o.cacheSize, o.cacheTTL)
	if err != nil {
		closeEmbedder(base, true)
		return nil, false, err
	}
	return cached, true, nil
}

func closeEmbedder(e Embedder, owned bool) error {
	if !owned {
		return nil
	}
	if c, ok := e.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Retrieve returns the keyword and problem candidates for a feedback
// fragment.
func (t *Taxon) Retrieve(ctx context.Context, text string) (Candidates, error) {
	return t.engine.Retrieve(ctx, text)
}

// RetrieveBatch retrieves candidates for several fragments. Results are in
// input order.
func (t *Taxon) RetrieveBatch(ctx context.Context, texts []string) ([]Candidates, error) {
	return t.engine.RetrieveBatch(ctx, texts)
}

// CreateKeyword admits a keyword unless an active one already covers it,
// in which case the error carries the match (see DuplicateOf).
func (t *Taxon) CreateKeyword(ctx context.Context, in KeywordInput, createdBy string) (string, error) {
	return t.engine.CreateKeyword(ctx, in, createdBy)
}

// CreateProblem admits a problem under the same duplicate rules.
func (t *Taxon) CreateProblem(ctx context.Context, in ProblemInput, createdBy string) (string, error) {
	return t.engine.CreateProblem(ctx, in, createdBy)
}

// FindDuplicates lists active entries that collide with label, best first.
// departmentID scopes keyword checks; it is ignored for problems.
func (t *Taxon) FindDuplicates(ctx context.Context, label string, kind Kind, departmentID string) ([]Duplicate, error) {
	return t.engine.FindDuplicates(ctx, label, kind, departmentID)
}

// ArchiveKeyword retires a keyword; it stops being retrieved immediately.
func (t *Taxon) ArchiveKeyword(ctx context.Context, id, by string) error {
	return t.engine.ArchiveKeyword(ctx, id, by)
}

// ArchiveProblem retires a problem.
func (t *Taxon) ArchiveProblem(ctx context.Context, id, by string) error {
	return t.engine.ArchiveProblem(ctx, id, by)
}

// MarkDuplicate archives id and records it as merged into canonicalID.
func (t *Taxon) MarkDuplicate(ctx context.Context, kind Kind, id, canonicalID, by string) error {
	return t.engine.MarkDuplicate(ctx, kind, id, canonicalID, by)
}

// CreateProposal records a label suggestion for human review.
func (t *Taxon) CreateProposal(ctx context.Context, in ProposalInput, createdBy string) (string, error) {
	return t.engine.CreateProposal(ctx, in, createdBy)
}

// SeedDepartments writes the default hotel departments into an empty
// store and returns how many were written.
func (t *Taxon) SeedDepartments(ctx context.Context, by string) (int, error) {
	return t.engine.SeedDepartments(ctx, by)
}

// Import replaces the stored taxonomy with a JSON export and bumps the
// version past the stored one.
func (t *Taxon) Import(ctx context.Context, data []byte, by string) error {
	if err := t.store.Import(ctx, data, by); err != nil {
		return err
	}
	t.engine.InvalidateCache()
	return nil
}

// Stats reports the served taxonomy's version and embedding coverage.
func (t *Taxon) Stats(ctx context.Context) (Stats, error) {
	return t.engine.Stats(ctx)
}

// InvalidateCache makes the next call reload the taxonomy from the store.
func (t *Taxon) InvalidateCache() {
	t.engine.InvalidateCache()
}

// Close releases the store and any provider New created.
func (t *Taxon) Close() error {
	return errors.Join(t.store.Close(), closeEmbedder(t.embedder, t.ownsEmb))
}
