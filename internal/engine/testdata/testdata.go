// Package testdata ships a small taxonomy fixture with hand-placed 4-d
// embeddings, plus the queries whose outcomes against it are known.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed taxonomy.json
var taxonomyJSON []byte

//go:embed queries.json
var queriesJSON []byte

// Dim is the embedding dimension used throughout the fixture.
const Dim = 4

// Taxonomy returns the fixture document in the shape store.DB.Import
// accepts. It mixes structured and legacy plain-string entries.
func Taxonomy() []byte {
	return append([]byte(nil), taxonomyJSON...)
}

// Query is a feedback fragment with the vector a fake embedder should
// return for it and the expected retrieval outcome.
type Query struct {
	Text             string    `json:"text"`
	Vector           []float32 `json:"vector"`
	ExpectedKeywords []string  `json:"expected_keywords"`
	ExpectedRecall   string    `json:"expected_recall"`
	Description      string    `json:"description"`
}

// LoadQueries parses the embedded queries.json.
func LoadQueries() ([]Query, error) {
	var qs []Query
	if err := json.Unmarshal(queriesJSON, &qs); err != nil {
		return nil, fmt.Errorf("parse queries.json: %w", err)
	}
	return qs, nil
}
