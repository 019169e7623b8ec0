package retriever

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/engine/taxonomy"
	"github.com/hejijunhao/taxon/internal/model"
)

// query is the unit x axis; at(sim) is a unit vector whose cosine with it
// is sim.
var query = []float32{1, 0}

func at(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func kw(id string, sim float64) model.Keyword {
	return model.Keyword{ID: id, Label: "label " + id, DepartmentID: "A&B", Status: model.StatusActive, Embedding: at(sim)}
}

func pb(id string, sim float64) model.Problem {
	return model.Problem{ID: id, Label: "label " + id, Status: model.StatusActive, Embedding: at(sim)}
}

func snapshot(kws []model.Keyword, pbs []model.Problem) *taxonomy.Snapshot {
	depts := []model.Department{
		{ID: "Limpeza", Label: "Limpeza", Active: true, Order: 2},
		{ID: "A&B", Label: "A&B", Active: true, Order: 1},
	}
	return taxonomy.NewSnapshot(model.Meta{Version: 7}, depts, kws, pbs, time.Time{}, time.Minute)
}

func keywordIDs(c model.ClassificationCandidates) []string {
	ids := make([]string, 0, len(c.KeywordCandidates))
	for _, k := range c.KeywordCandidates {
		ids = append(ids, k.ID)
	}
	return ids
}

func TestRetrieve_SingleStrongKeyword(t *testing.T) {
	breakfast := model.Keyword{
		ID: "kw-1", Label: "A&B - Café da manhã", DepartmentID: "A&B",
		Status: model.StatusActive, Embedding: at(0.41), Examples: []string{"café frio"},
	}
	snap := snapshot(
		[]model.Keyword{breakfast, kw("kw-2", 0.12), kw("kw-3", 0.12)},
		[]model.Problem{pb("pb-1", 0.12)},
	)

	got, err := New(DefaultParams()).Retrieve(query, snap)
	require.NoError(t, err)

	require.Len(t, got.KeywordCandidates, 1)
	c := got.KeywordCandidates[0]
	assert.Equal(t, "kw-1", c.ID)
	assert.Equal(t, "A&B - Café da manhã", c.Label)
	assert.Equal(t, "A&B", c.DepartmentID)
	assert.Equal(t, []string{"café frio"}, c.Examples)
	assert.InDelta(t, 0.41, c.SimilarityScore, 1e-6)
	assert.Equal(t, model.MatchedEmbedding, c.MatchedBy)
	assert.Empty(t, got.ProblemCandidates)
	assert.Equal(t, model.RecallEmbedding, got.RecallMethod)
	assert.Equal(t, 0.30, got.RecallScoreThreshold)
	assert.Equal(t, 7, got.TaxonomyVersion)
}

func TestRetrieve_FallbackMakesHybrid(t *testing.T) {
	snap := snapshot([]model.Keyword{kw("kw-1", 0.22), kw("kw-2", 0.05)}, nil)

	got, err := New(DefaultParams()).Retrieve(query, snap)
	require.NoError(t, err)

	require.Len(t, got.KeywordCandidates, 1)
	assert.Equal(t, "kw-1", got.KeywordCandidates[0].ID)
	assert.InDelta(t, 0.22, got.KeywordCandidates[0].SimilarityScore, 1e-6)
	assert.Equal(t, model.MatchedFallback, got.KeywordCandidates[0].MatchedBy)
	assert.Equal(t, model.RecallHybrid, got.RecallMethod)
}

func TestRetrieve_ProblemFallbackBand(t *testing.T) {
	snap := snapshot(nil, []model.Problem{
		pb("pb-high", 0.60),
		pb("pb-band", 0.30),
		pb("pb-upper", 0.35),
		pb("pb-below-floor", 0.24),
		pb("pb-low", 0.10),
	})

	got, err := New(DefaultParams()).Retrieve(query, snap)
	require.NoError(t, err)

	ids := make([]string, 0, len(got.ProblemCandidates))
	for _, p := range got.ProblemCandidates {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"pb-high", "pb-upper", "pb-band"}, ids)
	assert.Equal(t, model.MatchedEmbedding, got.ProblemCandidates[0].MatchedBy)
	assert.Equal(t, model.MatchedFallback, got.ProblemCandidates[1].MatchedBy)
	assert.Equal(t, model.RecallHybrid, got.RecallMethod)
}

func TestRetrieve_NoFallbackWhenEnoughPrimary(t *testing.T) {
	snap := snapshot([]model.Keyword{
		kw("a", 0.9), kw("b", 0.8), kw("c", 0.7), kw("d", 0.25),
	}, nil)

	got, err := New(DefaultParams()).Retrieve(query, snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keywordIDs(got))
	assert.Equal(t, model.RecallEmbedding, got.RecallMethod)
}

func TestRetrieve_FallbackFloorInvariant(t *testing.T) {
	tests := []struct {
		name    string
		primary int
		band    int
		topN    int
		want    int
	}{
		{"no primary", 0, 4, 10, 4},
		{"band fills remaining slots", 2, 20, 10, 10},
		{"band smaller than room", 1, 1, 10, 2},
		{"small top n", 2, 5, 3, 3},
		{"primary reaches minimum", 3, 5, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var kws []model.Keyword
			for i := 0; i < tt.primary; i++ {
				kws = append(kws, kw(fmt.Sprintf("p%d", i), 0.9-float64(i)*0.01))
			}
			for i := 0; i < tt.band; i++ {
				kws = append(kws, kw(fmt.Sprintf("b%d", i), 0.29-float64(i)*0.001))
			}
			p := DefaultParams()
			p.TopN = tt.topN

			got, err := New(p).Retrieve(query, snapshot(kws, nil))
			require.NoError(t, err)
			assert.Len(t, got.KeywordCandidates, tt.want)
			for i := 1; i < len(got.KeywordCandidates); i++ {
				assert.GreaterOrEqual(t, got.KeywordCandidates[i-1].SimilarityScore, got.KeywordCandidates[i].SimilarityScore)
			}
		})
	}
}

func TestRetrieve_TopNTruncatesPrimary(t *testing.T) {
	var kws []model.Keyword
	for i := 0; i < 15; i++ {
		kws = append(kws, kw(fmt.Sprintf("k%02d", i), 0.5+float64(i)*0.01))
	}
	got, err := New(DefaultParams()).Retrieve(query, snapshot(kws, nil))
	require.NoError(t, err)
	require.Len(t, got.KeywordCandidates, 10)
	assert.Equal(t, "k14", got.KeywordCandidates[0].ID)
	assert.Equal(t, "k05", got.KeywordCandidates[9].ID)
}

func TestRetrieve_Deterministic(t *testing.T) {
	snap := snapshot(
		[]model.Keyword{kw("a", 0.5), kw("b", 0.35), kw("c", 0.5), kw("d", 0.21)},
		[]model.Problem{pb("x", 0.45), pb("y", 0.3)},
	)
	r := New(DefaultParams())

	first, err := r.Retrieve(query, snap)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(query, snap)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrieve_TiesKeepSnapshotOrder(t *testing.T) {
	snap := snapshot([]model.Keyword{kw("first", 0.5), kw("second", 0.5), kw("third", 0.5)}, nil)
	got, err := New(DefaultParams()).Retrieve(query, snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, keywordIDs(got))
}

func TestRetrieve_ThresholdMonotonic(t *testing.T) {
	var kws []model.Keyword
	for i := 0; i < 20; i++ {
		kws = append(kws, kw(fmt.Sprintf("k%02d", i), float64(i)*0.05))
	}
	snap := snapshot(kws, nil)

	count := func(threshold float64) int {
		p := DefaultParams()
		p.KeywordThreshold = threshold
		p.KeywordFloor = 0
		p.MinCandidates = 0
		p.TopN = 100
		got, err := New(p).Retrieve(query, snap)
		require.NoError(t, err)
		return len(got.KeywordCandidates)
	}

	prev := count(0.05)
	for _, th := range []float64{0.2, 0.4, 0.6, 0.8, 0.95} {
		n := count(th)
		assert.LessOrEqual(t, n, prev, "threshold %.2f", th)
		prev = n
	}
}

func TestRetrieve_SkipsEntitiesWithoutEmbedding(t *testing.T) {
	bare := model.Keyword{ID: "bare", Label: "bare", Status: model.StatusActive}
	snap := snapshot([]model.Keyword{bare, kw("a", 0.9)}, nil)

	got, err := New(DefaultParams()).Retrieve(query, snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keywordIDs(got))
}

func TestRetrieve_IgnoresInactive(t *testing.T) {
	archived := kw("old", 0.95)
	archived.Status = model.StatusArchived
	snap := snapshot([]model.Keyword{archived, kw("a", 0.9)}, nil)

	got, err := New(DefaultParams()).Retrieve(query, snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keywordIDs(got))
}

func TestRetrieve_DimensionMismatchIsFatal(t *testing.T) {
	odd := kw("odd", 0.5)
	odd.Embedding = []float32{1, 0, 0}
	snap := snapshot([]model.Keyword{kw("a", 0.9), odd}, nil)

	_, err := New(DefaultParams()).Retrieve(query, snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrEmbeddingDimensionMismatch)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	snap := snapshot([]model.Keyword{kw("a", 0.9)}, []model.Problem{pb("x", 0.9)})

	got, err := New(DefaultParams()).Retrieve(nil, snap)
	require.NoError(t, err)
	assert.Empty(t, got.KeywordCandidates)
	assert.NotNil(t, got.KeywordCandidates)
	assert.Empty(t, got.ProblemCandidates)
	assert.Equal(t, model.RecallEmbedding, got.RecallMethod)
	require.Len(t, got.Departments, 2)
	assert.Equal(t, "A&B", got.Departments[0].ID)
	assert.Equal(t, 7, got.TaxonomyVersion)
}

func TestRetrieve_NilSnapshot(t *testing.T) {
	_, err := New(DefaultParams()).Retrieve(query, nil)
	assert.ErrorIs(t, err, domainerrors.ErrTaxonomyUnavailable)
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scale invariant", []float32{1, 1}, []float32{5, 5}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := Cosine([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, domainerrors.ErrEmbeddingDimensionMismatch)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	bad := []func(*Params){
		func(p *Params) { p.TopN = 0 },
		func(p *Params) { p.MinCandidates = -1 },
		func(p *Params) { p.KeywordFloor = p.KeywordThreshold },
		func(p *Params) { p.ProblemFloor = 0.5 },
	}
	for i, mutate := range bad {
		p := DefaultParams()
		mutate(&p)
		err := p.Validate()
		assert.ErrorIs(t, err, domainerrors.ErrValidation, "case %d", i)
	}
}

func TestRetrieve_ResultDoesNotAliasSnapshot(t *testing.T) {
	breakfast := kw("kw-1", 0.9)
	breakfast.Examples = []string{"café frio"}
	noise := pb("pb-1", 0.9)
	noise.Examples = []string{"barulho"}
	noise.ApplicableDepartments = []string{"Limpeza"}
	snap := snapshot([]model.Keyword{breakfast}, []model.Problem{noise})
	r := New(DefaultParams())

	first, err := r.Retrieve(query, snap)
	require.NoError(t, err)
	require.Len(t, first.KeywordCandidates, 1)
	require.Len(t, first.ProblemCandidates, 1)
	first.Departments[0].Label = "changed"
	first.KeywordCandidates[0].Examples[0] = "changed"
	first.ProblemCandidates[0].Examples[0] = "changed"
	first.ProblemCandidates[0].ApplicableDepartments[0] = "changed"

	second, err := r.Retrieve(query, snap)
	require.NoError(t, err)
	assert.Equal(t, "A&B", second.Departments[0].Label)
	assert.Equal(t, []string{"café frio"}, second.KeywordCandidates[0].Examples)
	assert.Equal(t, []string{"barulho"}, second.ProblemCandidates[0].Examples)
	assert.Equal(t, []string{"Limpeza"}, second.ProblemCandidates[0].ApplicableDepartments)
}
