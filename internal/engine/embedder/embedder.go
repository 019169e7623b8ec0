// Package embedder turns text into fixed-length vectors. Providers are a
// local ONNX model and the OpenAI embeddings API; Cached memoizes any of
// them.
package embedder

import (
	"context"
	"errors"

	domainerrors "github.com/hejijunhao/taxon/internal/errors"
)

// Embedder produces vector embeddings from text. Implementations must be
// safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dim is the length of every vector Embed returns.
	Dim() int
	// Model names the embedding model, recorded in taxonomy meta.
	Model() string
}

// Verify checks that vec has the provider's dimension.
func Verify(e Embedder, vec []float32) error {
	if len(vec) != e.Dim() {
		return domainerrors.DimensionMismatch(e.Dim(), len(vec))
	}
	return nil
}

// Classify maps a provider failure to a domain error. Deadline hits become
// EMBEDDING_PROVIDER_TIMEOUT; domain errors pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domainerrors.ProviderTimeout(err)
	}
	return domainerrors.ProviderError(err)
}
