// Package mutator admits new keywords and problems into the taxonomy and
// retires existing ones. Every successful mutation appends to the store,
// bumps the taxonomy version and invalidates the local cache.
package mutator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/engine/dedup"
	"github.com/hejijunhao/taxon/internal/engine/embedder"
	"github.com/hejijunhao/taxon/internal/engine/taxonomy"
	"github.com/hejijunhao/taxon/internal/id"
	"github.com/hejijunhao/taxon/internal/logging"
	"github.com/hejijunhao/taxon/internal/model"
	"github.com/hejijunhao/taxon/internal/store"
	"github.com/hejijunhao/taxon/internal/textnorm"
	"github.com/hejijunhao/taxon/internal/validation"
)

// Cache is the part of taxonomy.Cache the mutator depends on.
type Cache interface {
	Get(ctx context.Context, forceReload bool) (*taxonomy.Snapshot, error)
	Invalidate()
}

// KeywordInput describes a keyword to create.
type KeywordInput struct {
	Label        string   `json:"label" validate:"required,max=120"`
	DepartmentID string   `json:"department_id" validate:"required"`
	Description  string   `json:"description" validate:"max=500"`
	Aliases      []string `json:"aliases" validate:"max=10,dive,max=120"`
	Examples     []string `json:"examples" validate:"max=5,dive,max=500"`
}

// ProblemInput describes a problem to create. An empty
// ApplicableDepartments makes the problem transversal.
type ProblemInput struct {
	Label                 string         `json:"label" validate:"required,max=120"`
	Description           string         `json:"description" validate:"max=500"`
	Category              string         `json:"category" validate:"max=60"`
	Severity              model.Severity `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	ApplicableDepartments []string       `json:"applicable_departments"`
	Aliases               []string       `json:"aliases" validate:"max=10,dive,max=120"`
	Examples              []string       `json:"examples" validate:"max=5,dive,max=500"`
}

// ProposalInput is a classifier's suggestion for a label the taxonomy
// lacks.
type ProposalInput struct {
	Kind         model.Kind `json:"type" validate:"required,oneof=keyword problem"`
	Label        string     `json:"proposed_label" validate:"required,max=120"`
	DepartmentID string     `json:"department_id"`
	Context      string     `json:"context" validate:"required,max=2000"`
}

// Mutator applies taxonomy writes. Check-then-append is not atomic: two
// concurrent creates of the same label can both pass duplicate detection.
type Mutator struct {
	store    store.Store
	cache    Cache
	detector *dedup.Detector
	embedder embedder.Embedder
	validate *validation.Validator
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithCallTimeout bounds each embedding and store call. Zero disables.
func WithCallTimeout(d time.Duration) Option {
	return func(m *Mutator) { m.timeout = d }
}

// WithClock overrides the time source for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Mutator) { m.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mutator) { m.logger = l }
}

// New creates a Mutator.
func New(s store.Store, cache Cache, det *dedup.Detector, emb embedder.Embedder, opts ...Option) *Mutator {
	m := &Mutator{
		store:    s,
		cache:    cache,
		detector: det,
		embedder: emb,
		validate: validation.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDefault(m.logger)
	return m
}

// CreateKeyword validates in, rejects duplicates within its department,
// embeds the enriched text and appends the keyword. It returns the new ID.
// Nothing is written unless every check passes.
func (m *Mutator) CreateKeyword(ctx context.Context, in KeywordInput, createdBy string) (string, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	if err := m.validate.Validate(in); err != nil {
		return "", err
	}
	slug, err := slugFor(in.Label)
	if err != nil {
		return "", err
	}

	snap, err := m.snapshot(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := snap.Department(in.DepartmentID); !ok {
		return "", domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"department_id": fmt.Sprintf("unknown department %q", in.DepartmentID)})
	}

	kwID, err := id.Generate(id.PrefixKeyword)
	if err != nil {
		return "", err
	}
	if err := m.checkDuplicate(ctx, in.Label, model.KindKeyword, in.DepartmentID); err != nil {
		return "", err
	}
	vec, err := m.embed(ctx, keywordText(in))
	if err != nil {
		return "", err
	}

	now := m.now()
	kw := model.Keyword{
		ID:           kwID,
		Label:        in.Label,
		DepartmentID: in.DepartmentID,
		Slug:         slug,
		Aliases:      orEmpty(in.Aliases),
		Description:  in.Description,
		Examples:     orEmpty(in.Examples),
		Embedding:    vec,
		Status:       model.StatusActive,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
	if err := m.storeCall(ctx, "append keyword", func(ctx context.Context) error {
		return m.store.AppendKeyword(ctx, kw)
	}); err != nil {
		return "", err
	}
	version, err := m.commit(ctx, createdBy)
	if err != nil {
		return "", err
	}

	m.logger.Info("keyword created", "id", kwID, "label", kw.Label, "department", kw.DepartmentID, "version", version)
	return kwID, nil
}

// CreateProblem is CreateKeyword for problems; duplicates are checked
// across all problems regardless of department.
func (m *Mutator) CreateProblem(ctx context.Context, in ProblemInput, createdBy string) (string, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := m.validate.Validate(in); err != nil {
		return "", err
	}
	slug, err := slugFor(in.Label)
	if err != nil {
		return "", err
	}

	snap, err := m.snapshot(ctx)
	if err != nil {
		return "", err
	}
	for _, dept := range in.ApplicableDepartments {
		if _, ok := snap.Department(dept); !ok {
			return "", domainerrors.ValidationWithDetails("validation failed",
				map[string]string{"applicable_departments": fmt.Sprintf("unknown department %q", dept)})
		}
	}

	pbID, err := id.Generate(id.PrefixProblem)
	if err != nil {
		return "", err
	}
	if err := m.checkDuplicate(ctx, in.Label, model.KindProblem, ""); err != nil {
		return "", err
	}
	vec, err := m.embed(ctx, problemText(in))
	if err != nil {
		return "", err
	}

	now := m.now()
	p := model.Problem{
		ID:                    pbID,
		Label:                 in.Label,
		Slug:                  slug,
		Aliases:               orEmpty(in.Aliases),
		Description:           in.Description,
		Examples:              orEmpty(in.Examples),
		Embedding:             vec,
		Status:                model.StatusActive,
		Category:              in.Category,
		Severity:              in.Severity,
		ApplicableDepartments: in.ApplicableDepartments,
		CreatedBy:             createdBy,
		CreatedAt:             now,
		UpdatedAt:             now,
		Version:               1,
	}
	if err := m.storeCall(ctx, "append problem", func(ctx context.Context) error {
		return m.store.AppendProblem(ctx, p)
	}); err != nil {
		return "", err
	}
	version, err := m.commit(ctx, createdBy)
	if err != nil {
		return "", err
	}

	m.logger.Info("problem created", "id", pbID, "label", p.Label, "version", version)
	return pbID, nil
}

// Archive retires the keyword or problem with the given ID. It stays in
// the store but no longer takes part in retrieval or duplicate detection.
func (m *Mutator) Archive(ctx context.Context, kind model.Kind, entityID, by string) error {
	var op func(ctx context.Context) error
	switch kind {
	case model.KindKeyword:
		op = func(ctx context.Context) error {
			return m.store.UpdateKeyword(ctx, entityID, func(k *model.Keyword) { k.Status = model.StatusArchived })
		}
	case model.KindProblem:
		op = func(ctx context.Context) error {
			return m.store.UpdateProblem(ctx, entityID, func(p *model.Problem) { p.Status = model.StatusArchived })
		}
	default:
		return unknownKind(kind)
	}
	if err := m.storeCall(ctx, "archive "+string(kind), op); err != nil {
		return err
	}
	version, err := m.commit(ctx, by)
	if err != nil {
		return err
	}
	m.logger.Info("entity archived", "kind", kind, "id", entityID, "version", version)
	return nil
}

// ArchiveKeyword retires a keyword.
func (m *Mutator) ArchiveKeyword(ctx context.Context, kwID, by string) error {
	return m.Archive(ctx, model.KindKeyword, kwID, by)
}

// ArchiveProblem retires a problem.
func (m *Mutator) ArchiveProblem(ctx context.Context, pbID, by string) error {
	return m.Archive(ctx, model.KindProblem, pbID, by)
}

// MarkDuplicate archives entityID as a duplicate of the active entity
// canonicalID and records the merge on the canonical side.
func (m *Mutator) MarkDuplicate(ctx context.Context, kind model.Kind, entityID, canonicalID, by string) error {
	if entityID == canonicalID {
		return domainerrors.Validation("an entity cannot duplicate itself")
	}

	snap, err := m.cache.Get(ctx, true)
	if err != nil {
		return err
	}

	var archive, merge func(ctx context.Context) error
	switch kind {
	case model.KindKeyword:
		if !hasKeyword(snap, canonicalID) {
			return domainerrors.NotFoundf("active keyword %s not found", canonicalID)
		}
		archive = func(ctx context.Context) error {
			return m.store.UpdateKeyword(ctx, entityID, func(k *model.Keyword) {
				k.Status = model.StatusArchived
				k.DuplicateOf = canonicalID
			})
		}
		merge = func(ctx context.Context) error {
			return m.store.UpdateKeyword(ctx, canonicalID, func(k *model.Keyword) {
				k.MergedFrom = appendUnique(k.MergedFrom, entityID)
			})
		}
	case model.KindProblem:
		if !hasProblem(snap, canonicalID) {
			return domainerrors.NotFoundf("active problem %s not found", canonicalID)
		}
		archive = func(ctx context.Context) error {
			return m.store.UpdateProblem(ctx, entityID, func(p *model.Problem) {
				p.Status = model.StatusArchived
				p.DuplicateOf = canonicalID
			})
		}
		merge = func(ctx context.Context) error {
			return m.store.UpdateProblem(ctx, canonicalID, func(p *model.Problem) {
				p.MergedFrom = appendUnique(p.MergedFrom, entityID)
			})
		}
	default:
		return unknownKind(kind)
	}

	if err := m.storeCall(ctx, "mark duplicate", archive); err != nil {
		return err
	}
	if err := m.storeCall(ctx, "record merge", merge); err != nil {
		m.cache.Invalidate()
		return err
	}
	version, err := m.commit(ctx, by)
	if err != nil {
		return err
	}
	m.logger.Info("entity marked duplicate", "kind", kind, "id", entityID, "canonical", canonicalID, "version", version)
	return nil
}

// CreateProposal records a pending suggestion for human review. The
// taxonomy version is unaffected.
func (m *Mutator) CreateProposal(ctx context.Context, in ProposalInput, createdBy string) (string, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := m.validate.Validate(in); err != nil {
		return "", err
	}
	propID, err := id.Generate(id.PrefixProposal)
	if err != nil {
		return "", err
	}
	if createdBy == "" {
		createdBy = "system"
	}
	p := model.Proposal{
		ID:                propID,
		Kind:              in.Kind,
		ProposedLabel:     in.Label,
		DepartmentID:      in.DepartmentID,
		Context:           in.Context,
		SuggestedSlug:     textnorm.Slug(in.Label),
		SuggestedExamples: []string{in.Context},
		Status:            model.ProposalPending,
		CreatedBy:         createdBy,
		CreatedAt:         m.now(),
		FeedbackCount:     1,
	}
	if err := m.storeCall(ctx, "append proposal", func(ctx context.Context) error {
		return m.store.AppendProposal(ctx, p)
	}); err != nil {
		return "", err
	}
	m.logger.Info("proposal created", "id", propID, "kind", p.Kind, "label", p.ProposedLabel)
	return propID, nil
}

// SeedDepartments writes the default hotel departments when the store has
// none. It returns how many were written.
func (m *Mutator) SeedDepartments(ctx context.Context, by string) (int, error) {
	var existing []model.Department
	if err := m.storeCall(ctx, "read departments", func(ctx context.Context) error {
		var err error
		existing, err = m.store.Departments(ctx)
		return err
	}); err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		m.logger.Debug("departments already seeded", "count", len(existing))
		return 0, nil
	}

	depts := taxonomy.DefaultDepartments()
	if err := m.storeCall(ctx, "put departments", func(ctx context.Context) error {
		return m.store.PutDepartments(ctx, depts)
	}); err != nil {
		return 0, err
	}
	version, err := m.commit(ctx, by)
	if err != nil {
		return 0, err
	}
	m.logger.Info("departments seeded", "count", len(depts), "version", version)
	return len(depts), nil
}

func (m *Mutator) snapshot(ctx context.Context) (*taxonomy.Snapshot, error) {
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	return m.cache.Get(ctx, false)
}

func (m *Mutator) checkDuplicate(ctx context.Context, label string, kind model.Kind, departmentID string) error {
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	return m.detector.Check(ctx, label, kind, departmentID)
}

func (m *Mutator) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, embedder.Classify(err)
	}
	if err := embedder.Verify(m.embedder, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// storeCall runs a store call under the call timeout. Domain errors pass
// through; a deadline surfaces as TAXONOMY_UNAVAILABLE.
func (m *Mutator) storeCall(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := m.callContext(ctx)
	defer cancel()
	err := fn(ctx)
	if err == nil {
		return nil
	}
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.Wrap(err, domainerrors.CodeTaxonomyUnavailable, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// commit bumps the taxonomy version after a successful write and
// invalidates the cache, even when the bump itself fails.
func (m *Mutator) commit(ctx context.Context, by string) (int, error) {
	defer m.cache.Invalidate()
	var version int
	err := m.storeCall(ctx, "increment version", func(ctx context.Context) error {
		var err error
		version, err = m.store.IncrementVersion(ctx, by, m.embedder.Model())
		return err
	})
	return version, err
}

func (m *Mutator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

func slugFor(label string) (string, error) {
	slug := textnorm.Slug(label)
	if slug == "" {
		return "", domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"label": "must contain at least one letter or digit"})
	}
	return slug, nil
}

func unknownKind(kind model.Kind) error {
	return domainerrors.Validation(fmt.Sprintf("unknown kind %q", kind))
}

func hasKeyword(snap *taxonomy.Snapshot, kwID string) bool {
	for _, k := range snap.Keywords {
		if k.ID == kwID {
			return true
		}
	}
	return false
}

func hasProblem(snap *taxonomy.Snapshot, pbID string) bool {
	for _, p := range snap.Problems {
		if p.ID == pbID {
			return true
		}
	}
	return false
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
