package model

import "time"

// ProposalStatus is the review state of a taxonomy proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal records a classifier's suggestion for a new keyword or problem,
// kept for later human review.
type Proposal struct {
	ID                string         `json:"id"`
	Kind              Kind           `json:"type"`
	ProposedLabel     string         `json:"proposed_label"`
	DepartmentID      string         `json:"department_id,omitempty"`
	Context           string         `json:"context"`
	SuggestedSlug     string         `json:"suggested_slug"`
	SuggestedExamples []string       `json:"suggested_examples"`
	Status            ProposalStatus `json:"status"`
	CreatedBy         string         `json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	FeedbackCount     int            `json:"feedback_count"`
}
