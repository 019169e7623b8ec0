// Package retriever scores an embedded query against the taxonomy snapshot
// and assembles the ranked candidate lists handed to the classifier.
package retriever

import (
	"fmt"
	"math"
	"slices"
	"sort"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/engine/taxonomy"
	"github.com/hejijunhao/taxon/internal/model"
)

// Params bounds recall. Scores strictly above a threshold pass the primary
// pass; scores in (floor, threshold] are eligible for the fallback pass,
// which runs per category when fewer than MinCandidates survived.
type Params struct {
	TopN             int
	KeywordThreshold float64
	ProblemThreshold float64
	KeywordFloor     float64
	ProblemFloor     float64
	MinCandidates    int
}

// DefaultParams returns the thresholds tuned for text-embedding-3-small.
func DefaultParams() Params {
	return Params{
		TopN:             10,
		KeywordThreshold: 0.30,
		ProblemThreshold: 0.40,
		KeywordFloor:     0.20,
		ProblemFloor:     0.25,
		MinCandidates:    3,
	}
}

// Validate rejects parameter sets that would make the fallback band empty or
// inverted.
func (p Params) Validate() error {
	switch {
	case p.TopN <= 0:
		return domainerrors.Validation("top n must be positive")
	case p.MinCandidates < 0:
		return domainerrors.Validation("min candidates must not be negative")
	case p.KeywordFloor >= p.KeywordThreshold:
		return domainerrors.Validation(fmt.Sprintf("keyword floor %.2f must be below threshold %.2f", p.KeywordFloor, p.KeywordThreshold))
	case p.ProblemFloor >= p.ProblemThreshold:
		return domainerrors.Validation(fmt.Sprintf("problem floor %.2f must be below threshold %.2f", p.ProblemFloor, p.ProblemThreshold))
	}
	return nil
}

// Retriever ranks keyword and problem candidates for a query vector.
// It holds no state besides its parameters and is safe for concurrent use.
type Retriever struct {
	params Params
}

// New creates a Retriever with the given parameters.
func New(p Params) *Retriever {
	return &Retriever{params: p}
}

// Params returns the retriever's parameters.
func (r *Retriever) Params() Params { return r.params }

// Retrieve scores every active entity with an embedding in snap against
// query. The result shares no memory with snap. An empty query yields an empty result carrying the departments.
// A stored embedding whose length differs from the query fails the whole
// call with EMBEDDING_DIMENSION_MISMATCH.
func (r *Retriever) Retrieve(query []float32, snap *taxonomy.Snapshot) (model.ClassificationCandidates, error) {
	if snap == nil {
		return model.ClassificationCandidates{}, domainerrors.TaxonomyUnavailable(nil)
	}
	out := model.ClassificationCandidates{
		Departments:          slices.Clone(snap.Departments),
		KeywordCandidates:    []model.KeywordCandidate{},
		ProblemCandidates:    []model.ProblemCandidate{},
		RecallMethod:         model.RecallEmbedding,
		RecallScoreThreshold: r.params.KeywordThreshold,
		TaxonomyVersion:      snap.Version,
	}
	if len(query) == 0 {
		return out, nil
	}

	kws, kwFallback, err := rank(query, snap.Keywords, keywordVector,
		r.params.KeywordThreshold, r.params.KeywordFloor, r.params.TopN, r.params.MinCandidates)
	if err != nil {
		return model.ClassificationCandidates{}, err
	}
	pbs, pbFallback, err := rank(query, snap.Problems, problemVector,
		r.params.ProblemThreshold, r.params.ProblemFloor, r.params.TopN, r.params.MinCandidates)
	if err != nil {
		return model.ClassificationCandidates{}, err
	}

	for _, s := range kws {
		out.KeywordCandidates = append(out.KeywordCandidates, model.KeywordCandidate{
			ID:              s.item.ID,
			Label:           s.item.Label,
			DepartmentID:    s.item.DepartmentID,
			Description:     s.item.Description,
			Examples:        slices.Clone(s.item.Examples),
			SimilarityScore: s.score,
			MatchedBy:       s.matchedBy,
		})
	}
	for _, s := range pbs {
		out.ProblemCandidates = append(out.ProblemCandidates, model.ProblemCandidate{
			ID:                    s.item.ID,
			Label:                 s.item.Label,
			Description:           s.item.Description,
			Examples:              slices.Clone(s.item.Examples),
			ApplicableDepartments: slices.Clone(s.item.ApplicableDepartments),
			SimilarityScore:       s.score,
			MatchedBy:             s.matchedBy,
		})
	}
	if kwFallback || pbFallback {
		out.RecallMethod = model.RecallHybrid
	}
	return out, nil
}

type scored[T any] struct {
	item      T
	score     float64
	matchedBy model.MatchedBy
}

func keywordVector(k model.Keyword) []float32 { return k.Embedding }
func problemVector(p model.Problem) []float32 { return p.Embedding }

// rank runs both passes for one category. The bool reports whether the
// fallback pass added at least one candidate.
func rank[T any](query []float32, items []T, vec func(T) []float32, threshold, floor float64, topN, minCount int) ([]scored[T], bool, error) {
	var primary, band []scored[T]
	for _, it := range items {
		v := vec(it)
		if len(v) == 0 {
			continue
		}
		sim, err := Cosine(query, v)
		if err != nil {
			return nil, false, err
		}
		switch {
		case sim > threshold:
			primary = append(primary, scored[T]{item: it, score: sim, matchedBy: model.MatchedEmbedding})
		case sim > floor:
			band = append(band, scored[T]{item: it, score: sim, matchedBy: model.MatchedFallback})
		}
	}

	sortDesc(primary)
	if len(primary) > topN {
		primary = primary[:topN]
	}
	if len(primary) >= minCount || len(band) == 0 {
		return primary, false, nil
	}

	sortDesc(band)
	room := topN - len(primary)
	if room > len(band) {
		room = len(band)
	}
	if room <= 0 {
		return primary, false, nil
	}
	return append(primary, band[:room]...), true, nil
}

func sortDesc[T any](s []scored[T]) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].score > s[j].score })
}

// Cosine returns the cosine similarity of a and b, accumulated in float64.
// A zero-norm vector scores 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domainerrors.DimensionMismatch(len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
