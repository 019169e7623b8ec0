package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/taxon/internal/model"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("mutator: %w", DuplicateDetected(model.Duplicate{ID: "kw-1", Label: "A&B - Café da manhã", Similarity: 1}))

	assert.True(t, Is(err, ErrDuplicateDetected))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, CodeDuplicateDetected, CodeOf(err))
}

func TestDuplicateOf(t *testing.T) {
	best := model.Duplicate{ID: "kw-1", Label: "A&B - Café da manhã", Similarity: 1}
	err := fmt.Errorf("wrapped: %w", DuplicateDetected(best))

	got, ok := DuplicateOf(err)
	require.True(t, ok)
	assert.Equal(t, best, got)

	_, ok = DuplicateOf(Validation("bad"))
	assert.False(t, ok)
}

func TestWrapPreservesCause(t *testing.T) {
	err := ProviderTimeout(context.DeadlineExceeded)

	assert.True(t, Is(err, ErrEmbeddingProviderTimeout))
	assert.True(t, Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("boom")))
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeDuplicateDetected, true},
		{CodeValidation, true},
		{CodeEmbeddingProviderTimeout, true},
		{CodeEmbeddingDimensionMismatch, false},
		{CodeTaxonomyUnavailable, false},
		{CodeInternal, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.Recoverable(), "code %s", tt.code)
	}
}

func TestDimensionMismatchMessage(t *testing.T) {
	err := DimensionMismatch(1536, 1024)
	assert.Equal(t, "embedding dimension mismatch: want 1536, got 1024", err.Error())
}
