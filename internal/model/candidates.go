package model

// RecallMethod reports how a candidate set was assembled.
type RecallMethod string

const (
	RecallEmbedding    RecallMethod = "embedding"
	RecallKeywordMatch RecallMethod = "keyword_match"
	RecallHybrid       RecallMethod = "hybrid"
)

// MatchedBy records which pass surfaced a candidate.
type MatchedBy string

const (
	MatchedEmbedding MatchedBy = "embedding"
	MatchedFallback  MatchedBy = "fallback"
)

// KeywordCandidate is a keyword surfaced for a query, with display fields
// denormalized for the downstream classifier.
type KeywordCandidate struct {
	ID              string    `json:"id"`
	Label           string    `json:"label"`
	DepartmentID    string    `json:"department_id"`
	Description     string    `json:"description,omitempty"`
	Examples        []string  `json:"examples"`
	SimilarityScore float64   `json:"similarity_score"`
	MatchedBy       MatchedBy `json:"matched_by"`
}

// ProblemCandidate is a problem surfaced for a query.
type ProblemCandidate struct {
	ID                    string    `json:"id"`
	Label                 string    `json:"label"`
	Description           string    `json:"description,omitempty"`
	Examples              []string  `json:"examples"`
	ApplicableDepartments []string  `json:"applicable_departments,omitempty"`
	SimilarityScore       float64   `json:"similarity_score"`
	MatchedBy             MatchedBy `json:"matched_by"`
}

// ClassificationCandidates is the per-request result handed to the external
// classifier. It is never persisted.
type ClassificationCandidates struct {
	Departments          []Department       `json:"departments"`
	KeywordCandidates    []KeywordCandidate `json:"keyword_candidates"`
	ProblemCandidates    []ProblemCandidate `json:"problem_candidates"`
	RecallMethod         RecallMethod       `json:"recall_method"`
	RecallScoreThreshold float64            `json:"recall_score_threshold"`
	TaxonomyVersion      int                `json:"taxonomy_version"`
}

// Duplicate is an existing entity that collides with a proposed label.
type Duplicate struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity"`
}
