package taxon

import (
	"github.com/hejijunhao/taxon/internal/engine"
	"github.com/hejijunhao/taxon/internal/engine/embedder"
	"github.com/hejijunhao/taxon/internal/engine/mutator"
	domainerrors "github.com/hejijunhao/taxon/internal/errors"
	"github.com/hejijunhao/taxon/internal/model"
)

type (
	// Candidates is the ranked result of Retrieve.
	Candidates       = model.ClassificationCandidates
	KeywordCandidate = model.KeywordCandidate
	ProblemCandidate = model.ProblemCandidate
	Department       = model.Department
	Duplicate        = model.Duplicate
	Kind             = model.Kind

	KeywordInput  = mutator.KeywordInput
	ProblemInput  = mutator.ProblemInput
	ProposalInput = mutator.ProposalInput

	Stats = engine.Stats

	// Embedder turns text into vectors. Implementations must be safe for
	// concurrent use and return vectors of length Dim().
	Embedder = embedder.Embedder

	// Error is the coded error returned by every operation.
	Error = domainerrors.Error
	Code  = domainerrors.Code
)

const (
	KindKeyword = model.KindKeyword
	KindProblem = model.KindProblem
)

// Sentinels for errors.Is.
var (
	ErrTaxonomyUnavailable        = domainerrors.ErrTaxonomyUnavailable
	ErrDuplicateDetected          = domainerrors.ErrDuplicateDetected
	ErrEmbeddingDimensionMismatch = domainerrors.ErrEmbeddingDimensionMismatch
	ErrEmbeddingProviderTimeout   = domainerrors.ErrEmbeddingProviderTimeout
	ErrEmbeddingProviderError     = domainerrors.ErrEmbeddingProviderError
	ErrValidation                 = domainerrors.ErrValidation
	ErrNotFound                   = domainerrors.ErrNotFound
)

// CodeOf returns the error code carried by err, or INTERNAL.
func CodeOf(err error) Code {
	return domainerrors.CodeOf(err)
}

// DuplicateOf returns the existing entry that blocked a create.
func DuplicateOf(err error) (Duplicate, bool) {
	return domainerrors.DuplicateOf(err)
}
