package models

import "time"

// Clarification statuses.
const (
	ClarificationPending   = "pending"
	ClarificationClarified = "clarified"
	ClarificationRejected  = "rejected"
)

// Clarification is a reviewer question raised against one parameter of an application.
type Clarification struct {
	ID                  int64             `json:"clarification_id"`
	ApplicationType     ApplicationType   `json:"application_type"`
	ApplicationID       int64             `json:"application_id"`
	ParameterName       string            `json:"parameter_name"`
	ClarificationByID   int64             `json:"clarification_by_id"`
	ClarificationByRole string            `json:"clarification_by_role"`
	ClarificationStatus string            `json:"clarification_status"`
	ReviewerComment     string            `json:"reviewer_comment"`
	Clarification       *string           `json:"clarification"`
	ClarificationDoc    *string           `json:"clarification_doc"`
	ClarifiedHistory    []ClarifiedRecord `json:"clarified_history"`
	ClarifiedAt         *time.Time        `json:"clarified_at"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// ClarifiedRecord keeps a previous unit response.
type ClarifiedRecord struct {
	Clarification    string    `json:"clarification"`
	ClarificationDoc string    `json:"clarification_doc,omitempty"`
	ClarifiedAt      time.Time `json:"clarified_at"`
}

// IsPending reports whether the clarification still awaits a unit response.
func (c *Clarification) IsPending() bool {
	return c != nil && c.ClarificationStatus == ClarificationPending
}
