package models

import (
	"strings"
	"time"

	"award-review/internal/apperrors"
)

// ApplicationType selects the citation or appreciation variant. Both share one schema.
type ApplicationType string

const (
	TypeCitation     ApplicationType = "citation"
	TypeAppreciation ApplicationType = "appreciation"
)

// ParseApplicationType validates a type string.
func ParseApplicationType(s string) (ApplicationType, error) {
	switch t := ApplicationType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeCitation, TypeAppreciation:
		return t, nil
	default:
		return "", apperrors.NewValidationError("type", "must be citation or appreciation")
	}
}

// Status is the primary state-machine variable of an application.
type Status string

const (
	StatusDraft               Status = "draft"
	StatusInReview            Status = "in_review"
	StatusInClarification     Status = "in_clarification"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusShortlistedApproved Status = "shortlisted_approved"
	StatusWithdrawed          Status = "withdrawed"
)

// Withdrawal sub-states.
const (
	WithdrawPending  = "pending"
	WithdrawApproved = "approved"
	WithdrawRejected = "rejected"
)

// Application is a citation or appreciation together with its workflow state.
type Application struct {
	ID       int64           `json:"id"`
	Type     ApplicationType `json:"type"`
	UnitID   int64           `json:"unit_id"`
	DateInit time.Time       `json:"date_init"`
	Status   Status          `json:"status_flag"`
	FDS      FDS             `json:"fds"`

	LastApprovedByRole          *string    `json:"last_approved_by_role"`
	LastApprovedAt              *time.Time `json:"last_approved_at"`
	LastRejectedByRole          *string    `json:"last_rejected_by_role"`
	LastRejectedAt              *time.Time `json:"last_rejected_at"`
	LastShortlistedApprovedRole *string    `json:"last_shortlisted_approved_role"`

	IsMOApproved bool       `json:"is_mo_approved"`
	MOApprovedAt *time.Time `json:"mo_approved_at"`
	IsOLApproved bool       `json:"is_ol_approved"`
	OLApprovedAt *time.Time `json:"ol_approved_at"`
	IsHRReview   bool       `json:"is_hr_review"`
	IsDVReview   bool       `json:"is_dv_review"`
	IsMPReview   bool       `json:"is_mp_review"`

	IsWithdrawRequested       bool       `json:"is_withdraw_requested"`
	WithdrawStatus            *string    `json:"withdraw_status"`
	WithdrawRequestedBy       *string    `json:"withdraw_requested_by"`
	WithdrawRequestedByUserID *int64     `json:"withdraw_requested_by_user_id"`
	WithdrawRequestedAt       *time.Time `json:"withdraw_requested_at"`
	WithdrawApprovedByRole    *string    `json:"withdraw_approved_by_role"`
	WithdrawApprovedByUserID  *int64     `json:"withdraw_approved_by_user_id"`
	WithdrawApprovedAt        *time.Time `json:"withdraw_approved_at"`

	Remarks []Remark `json:"remarks"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Remark is a reviewer note. An application holds at most one per role.
type Remark struct {
	Remarks           string    `json:"remarks"`
	RemarkAddedByRole string    `json:"remark_added_by_role"`
	RemarkAddedBy     int64     `json:"remark_added_by"`
	RemarkAddedAt     time.Time `json:"remark_added_at"`
}

// Clone returns a deep copy so commands can mutate without touching the original.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	c.FDS = a.FDS.Clone()
	c.Remarks = append([]Remark(nil), a.Remarks...)
	return &c
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// Deref returns the value of s or "" when nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
