package dedup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/engine/taxonomy"
	"github.com/hejijunhao/taxon/internal/model"
	"github.com/hejijunhao/taxon/internal/textnorm"
)

type staticSource struct {
	snap *taxonomy.Snapshot
	err  error
}

func (s staticSource) Get(context.Context, bool) (*taxonomy.Snapshot, error) {
	return s.snap, s.err
}

// mapEmbedder returns a per-text vector and counts calls.
type mapEmbedder struct {
	vecs  map[string][]float32
	err   error
	calls atomic.Int32
}

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vecs[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (m *mapEmbedder) Dim() int      { return 3 }
func (m *mapEmbedder) Model() string { return "map" }

func keyword(id, label, dept string, vec []float32) model.Keyword {
	return model.Keyword{
		ID: id, Label: label, DepartmentID: dept, Slug: textnorm.Slug(label),
		Status: model.StatusActive, Embedding: vec,
	}
}

func problem(id, label string, vec []float32) model.Problem {
	return model.Problem{ID: id, Label: label, Slug: textnorm.Slug(label), Status: model.StatusActive, Embedding: vec}
}

func source(kws []model.Keyword, pbs []model.Problem) staticSource {
	return staticSource{snap: taxonomy.NewSnapshot(model.Meta{Version: 1}, nil, kws, pbs, time.Time{}, time.Minute)}
}

func TestFindDuplicates_SlugMatchWithoutEmbedding(t *testing.T) {
	src := source([]model.Keyword{keyword("kw-1", "A&B - Café da manhã", "A&B", nil)}, nil)
	emb := &mapEmbedder{err: errors.New("provider down")}
	d := New(Config{}, src, emb)

	dups, err := d.FindDuplicates(context.Background(), "a&b - cafe da manha", model.KindKeyword, "A&B")
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, model.Duplicate{ID: "kw-1", Label: "A&B - Café da manhã", Similarity: 1.0}, dups[0])
	assert.Zero(t, emb.calls.Load(), "label should not be embedded when nothing needs a vector")
}

func TestFindDuplicates_EmbeddingSimilarity(t *testing.T) {
	src := source([]model.Keyword{
		keyword("kw-close", "A&B - Desjejum", "A&B", []float32{1, 0, 0}),
		keyword("kw-far", "A&B - Bar", "A&B", []float32{0, 1, 0}),
		keyword("kw-mid", "A&B - Buffet", "A&B", []float32{0.8, 0.6, 0}),
	}, nil)
	emb := &mapEmbedder{vecs: map[string][]float32{"A&B - Café": {1, 0, 0}}}
	d := New(Config{}, src, emb)

	dups, err := d.FindDuplicates(context.Background(), "A&B - Café", model.KindKeyword, "")
	require.NoError(t, err)
	require.Len(t, dups, 2)
	assert.Equal(t, "kw-close", dups[0].ID)
	assert.InDelta(t, 1.0, dups[0].Similarity, 1e-9)
	assert.Equal(t, "kw-mid", dups[1].ID)
	assert.InDelta(t, 0.8, dups[1].Similarity, 1e-6)
	assert.Equal(t, int32(1), emb.calls.Load(), "label embedded once")
}

func TestFindDuplicates_Threshold(t *testing.T) {
	src := source(nil, []model.Problem{problem("pb-1", "Ruído", []float32{0.75, 0, 0.6614378})})
	emb := &mapEmbedder{vecs: map[string][]float32{"Barulho": {1, 0, 0}}}

	dups, err := New(Config{Threshold: 0.9}, src, emb).FindDuplicates(context.Background(), "Barulho", model.KindProblem, "")
	require.NoError(t, err)
	assert.Empty(t, dups)

	dups, err = New(Config{Threshold: 0.5}, src, emb).FindDuplicates(context.Background(), "Barulho", model.KindProblem, "")
	require.NoError(t, err)
	assert.Len(t, dups, 1)
}

func TestFindDuplicates_DepartmentScope(t *testing.T) {
	src := source([]model.Keyword{
		keyword("kw-ab", "Serviço", "A&B", nil),
		keyword("kw-rec", "Serviço", "Recepcao", nil),
	}, nil)
	d := New(Config{}, src, &mapEmbedder{})

	dups, err := d.FindDuplicates(context.Background(), "Serviço", model.KindKeyword, "Recepcao")
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, "kw-rec", dups[0].ID)

	dups, err = d.FindDuplicates(context.Background(), "Serviço", model.KindKeyword, "")
	require.NoError(t, err)
	assert.Len(t, dups, 2)
}

func TestFindDuplicates_ProblemsIgnoreDepartment(t *testing.T) {
	src := source(nil, []model.Problem{problem("pb-1", "Demora no Atendimento", nil)})
	d := New(Config{}, src, &mapEmbedder{})

	dups, err := d.FindDuplicates(context.Background(), "Demora no atendimento", model.KindProblem, "A&B")
	require.NoError(t, err)
	assert.Len(t, dups, 1)
}

func TestFindDuplicates_SlugBeforeSimilarity(t *testing.T) {
	src := source(nil, []model.Problem{
		problem("pb-similar", "Atraso", []float32{1, 0, 0}),
		problem("pb-same", "Sujeira", []float32{0, 1, 0}),
	})
	emb := &mapEmbedder{vecs: map[string][]float32{"sujeira": {0.9, 0.43589, 0}}}
	d := New(Config{}, src, emb)

	dups, err := d.FindDuplicates(context.Background(), "sujeira", model.KindProblem, "")
	require.NoError(t, err)
	require.Len(t, dups, 2)
	assert.Equal(t, "pb-same", dups[0].ID)
	assert.Equal(t, 1.0, dups[0].Similarity)
	assert.Equal(t, "pb-similar", dups[1].ID)
}

func TestFindDuplicates_MissingSlugFallsBackToLabel(t *testing.T) {
	legacy := keyword("kw-old", "Limpeza - Banheiro", "Limpeza", nil)
	legacy.Slug = ""
	d := New(Config{}, source([]model.Keyword{legacy}, nil), &mapEmbedder{})

	dups, err := d.FindDuplicates(context.Background(), "Limpeza - Banheiro", model.KindKeyword, "")
	require.NoError(t, err)
	assert.Len(t, dups, 1)
}

func TestFindDuplicates_IgnoresArchived(t *testing.T) {
	old := keyword("kw-old", "Wi-Fi", "TI", nil)
	old.Status = model.StatusArchived
	d := New(Config{}, source([]model.Keyword{old}, nil), &mapEmbedder{})

	dups, err := d.FindDuplicates(context.Background(), "Wi-Fi", model.KindKeyword, "")
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestFindDuplicates_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("provider failure", func(t *testing.T) {
		src := source([]model.Keyword{keyword("kw-1", "Bar", "A&B", []float32{1, 0, 0})}, nil)
		d := New(Config{}, src, &mapEmbedder{err: errors.New("boom")})
		_, err := d.FindDuplicates(ctx, "Piscina", model.KindKeyword, "")
		assert.ErrorIs(t, err, domainerrors.ErrEmbeddingProviderError)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		src := source([]model.Keyword{keyword("kw-1", "Bar", "A&B", []float32{1, 0})}, nil)
		d := New(Config{}, src, &mapEmbedder{})
		_, err := d.FindDuplicates(ctx, "Piscina", model.KindKeyword, "")
		assert.ErrorIs(t, err, domainerrors.ErrEmbeddingDimensionMismatch)
	})

	t.Run("taxonomy unavailable", func(t *testing.T) {
		d := New(Config{}, staticSource{err: domainerrors.TaxonomyUnavailable(errors.New("down"))}, &mapEmbedder{})
		_, err := d.FindDuplicates(ctx, "Piscina", model.KindKeyword, "")
		assert.ErrorIs(t, err, domainerrors.ErrTaxonomyUnavailable)
	})

	t.Run("unknown kind", func(t *testing.T) {
		d := New(Config{}, source(nil, nil), &mapEmbedder{})
		_, err := d.FindDuplicates(ctx, "Piscina", model.Kind("department"), "")
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})
}

func TestCheck(t *testing.T) {
	src := source([]model.Keyword{keyword("kw-1", "A&B - Café da manhã", "A&B", []float32{1, 0, 0})}, nil)
	d := New(Config{}, src, &mapEmbedder{})

	err := d.Check(context.Background(), "A&B - Café da manhã", model.KindKeyword, "A&B")
	require.ErrorIs(t, err, domainerrors.ErrDuplicateDetected)
	best, ok := domainerrors.DuplicateOf(err)
	require.True(t, ok)
	assert.Equal(t, "kw-1", best.ID)
	assert.Equal(t, 1.0, best.Similarity)

	assert.NoError(t, d.Check(context.Background(), "Piscina", model.KindKeyword, "A&B"))
}
