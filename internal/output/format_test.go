package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/taxon/internal/model"
)

func candidatesRecord() Record {
	return Record{
		Command: "retrieve",
		At:      time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Result: model.ClassificationCandidates{
			Departments: []model.Department{{ID: "A&B", Label: "Alimentos e Bebidas"}},
			KeywordCandidates: []model.KeywordCandidate{{
				ID:              "kw-1",
				Label:           "A&B - Café da manhã",
				DepartmentID:    "A&B",
				Description:     "Buffet matinal",
				Examples:        []string{"café frio"},
				SimilarityScore: 0.41,
				MatchedBy:       model.MatchedEmbedding,
			}},
			ProblemCandidates: []model.ProblemCandidate{{
				ID:          "pb-1",
				Label:       "Demora",
				Description: "Espera longa",
				Examples:    []string{"demorou"},
			}},
			RecallMethod:    model.RecallEmbedding,
			TaxonomyVersion: 3,
		},
	}
}

func TestFormatRecordMinimal(t *testing.T) {
	orig := candidatesRecord()
	rec := FormatRecord(orig, Minimal)

	c, ok := rec.Result.(model.ClassificationCandidates)
	require.True(t, ok)
	assert.Nil(t, c.Departments)
	assert.Empty(t, c.KeywordCandidates[0].Description)
	assert.Nil(t, c.KeywordCandidates[0].Examples)
	assert.Empty(t, c.ProblemCandidates[0].Description)
	assert.Equal(t, "kw-1", c.KeywordCandidates[0].ID)
	assert.Equal(t, 0.41, c.KeywordCandidates[0].SimilarityScore)
	assert.Equal(t, 3, c.TaxonomyVersion)

	// The caller's record is untouched.
	oc := orig.Result.(model.ClassificationCandidates)
	assert.Equal(t, "Buffet matinal", oc.KeywordCandidates[0].Description)
	assert.Len(t, oc.Departments, 1)
}

func TestFormatRecordStandardPreserves(t *testing.T) {
	orig := candidatesRecord()
	assert.Equal(t, orig, FormatRecord(orig, Standard))
}

func TestFormatRecordOtherResults(t *testing.T) {
	rec := Record{Command: "duplicates", Result: []model.Duplicate{{ID: "kw-1", Similarity: 1}}}
	assert.Equal(t, rec, FormatRecord(rec, Minimal))
}

func TestParseVerbosity(t *testing.T) {
	assert.Equal(t, Minimal, ParseVerbosity("minimal"))
	assert.Equal(t, Standard, ParseVerbosity("standard"))
	assert.Equal(t, Standard, ParseVerbosity(""))
}
