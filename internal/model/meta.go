package model

import "time"

// Meta is the single taxonomy metadata record. Version increases by exactly
// one per successful mutation and is the cross-process invalidation signal.
type Meta struct {
	Version          int       `json:"version"`
	UpdatedAt        time.Time `json:"updated_at"`
	UpdatedBy        string    `json:"updated_by"`
	DepartmentsCount int       `json:"departments_count"`
	KeywordsCount    int       `json:"keywords_count"`
	ProblemsCount    int       `json:"problems_count"`
	EmbeddingModel   string    `json:"embedding_model"`
}
