package testdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQueries(t *testing.T) {
	qs, err := LoadQueries()
	require.NoError(t, err)
	require.NotEmpty(t, qs)

	for i, q := range qs {
		assert.NotEmpty(t, q.Text, "query[%d] text", i)
		assert.Len(t, q.Vector, Dim, "query[%d] vector", i)
		assert.Contains(t, []string{"embedding", "hybrid"}, q.ExpectedRecall, "query[%d] recall", i)
		assert.NotNil(t, q.ExpectedKeywords, "query[%d] expected keywords", i)
	}
}

func TestTaxonomyFixture(t *testing.T) {
	var doc struct {
		Departments []json.RawMessage `json:"departments"`
		Keywords    []json.RawMessage `json:"keywords"`
		Problems    []json.RawMessage `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(Taxonomy(), &doc))
	assert.NotEmpty(t, doc.Departments)
	assert.NotEmpty(t, doc.Keywords)
	assert.NotEmpty(t, doc.Problems)

	for i, raw := range doc.Keywords {
		var kw struct {
			Embedding []float32 `json:"embedding"`
		}
		if json.Unmarshal(raw, &kw) != nil {
			continue // legacy string entry
		}
		assert.Len(t, kw.Embedding, Dim, "keyword[%d]", i)
	}
}

func TestTaxonomyReturnsCopy(t *testing.T) {
	a := Taxonomy()
	a[0] = 'x'
	assert.Equal(t, byte('{'), Taxonomy()[0])
}
