package model

import "time"

// Kind distinguishes the two mutable taxonomy collections.
type Kind string

const (
	KindKeyword Kind = "keyword"
	KindProblem Kind = "problem"
)

// Status is the lifecycle state of a keyword or problem.
type Status string

const (
	StatusActive   Status = "active"
	StatusPending  Status = "pending"
	StatusArchived Status = "archived"
)

// Severity grades a problem. Empty means unspecified.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Department is a top-level hotel area. Seeded once, read-only afterwards.
type Department struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	Order       int    `json:"order"`
}

// Keyword is a department-scoped aspect label, e.g. "A&B - Café da manhã".
type Keyword struct {
	ID           string    `json:"id"`
	Label        string    `json:"label"`
	DepartmentID string    `json:"department_id"`
	Slug         string    `json:"slug"`
	Aliases      []string  `json:"aliases"`
	Description  string    `json:"description,omitempty"`
	Examples     []string  `json:"examples"`
	Embedding    []float32 `json:"embedding,omitempty"`
	Status       Status    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
	DuplicateOf  string    `json:"duplicate_of,omitempty"`
	MergedFrom   []string  `json:"merged_from,omitempty"`
}

// Problem is a transversal issue label, e.g. "Demora no Atendimento".
// An empty ApplicableDepartments means the problem applies everywhere.
type Problem struct {
	ID                    string    `json:"id"`
	Label                 string    `json:"label"`
	Slug                  string    `json:"slug"`
	Aliases               []string  `json:"aliases"`
	Description           string    `json:"description,omitempty"`
	Examples              []string  `json:"examples"`
	Embedding             []float32 `json:"embedding,omitempty"`
	Status                Status    `json:"status"`
	Category              string    `json:"category,omitempty"`
	Severity              Severity  `json:"severity,omitempty"`
	ApplicableDepartments []string  `json:"applicable_departments,omitempty"`
	CreatedBy             string    `json:"created_by"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	Version               int       `json:"version"`
	DuplicateOf           string    `json:"duplicate_of,omitempty"`
	MergedFrom            []string  `json:"merged_from,omitempty"`
}

// IsActive reports whether the keyword participates in retrieval and dedup.
func (k Keyword) IsActive() bool { return k.Status == StatusActive }

// HasEmbedding reports whether the keyword can be scored by similarity.
func (k Keyword) HasEmbedding() bool { return len(k.Embedding) > 0 }

// IsActive reports whether the problem participates in retrieval and dedup.
func (p Problem) IsActive() bool { return p.Status == StatusActive }

// HasEmbedding reports whether the problem can be scored by similarity.
func (p Problem) HasEmbedding() bool { return len(p.Embedding) > 0 }

// Transversal reports whether the problem applies to all departments.
func (p Problem) Transversal() bool { return len(p.ApplicableDepartments) == 0 }
