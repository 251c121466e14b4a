package models

import (
	"encoding/json"
	"time"
)

// ParameterMaster is one scoring rule in the master catalog.
type ParameterMaster struct {
	ID             int64     `json:"param_id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Subcategory    string    `json:"subcategory"`
	Subsubcategory string    `json:"subsubcategory"`
	AwardType      string    `json:"award_type"`
	PerUnitMark    float64   `json:"per_unit_mark"`
	MaxMarks       float64   `json:"max_marks"`
	Negative       bool      `json:"negative"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Draft is a unit's unsubmitted application document. One per (user, type).
type Draft struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      ApplicationType `json:"type"`
	DraftFDS  json.RawMessage `json:"draft_fds"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AuditLog records one workflow action against an application.
type AuditLog struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Role            string          `json:"role"`
	Action          string          `json:"action"`
	ApplicationType ApplicationType `json:"application_type"`
	ApplicationID   int64           `json:"application_id"`
	FromStatus      string          `json:"from_status"`
	ToStatus        string          `json:"to_status"`
	Details         string          `json:"details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Audit actions.
const (
	AuditActionCreated          = "application.created"
	AuditActionUpdated          = "application.updated"
	AuditActionStatusChanged    = "application.status_changed"
	AuditActionWithdrawRequest  = "application.withdraw_requested"
	AuditActionWithdrawDecision = "application.withdraw_decided"
	AuditActionMemberSigned     = "application.member_signed"
	AuditActionMarksApproved    = "application.marks_approved"
	AuditActionSignatureAdded   = "application.signature_added"
	AuditActionCommented        = "application.commented"
	AuditActionClarification    = "application.clarification_raised"
	AuditActionClarified        = "application.clarification_updated"
)
