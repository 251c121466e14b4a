// Package workflow holds the application state machine and the commands that
// reviewers apply to an application document. Every function works on a copy
// and returns the next version; persistence is left to the caller.
package workflow

import (
	"strings"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

// Request is one of WithdrawRequest, WithdrawDecision, SignatureSubmission or StatusChange.
type Request interface {
	isRequest()
}

// WithdrawRequest asks the reviewing chain to withdraw an application.
type WithdrawRequest struct{}

// WithdrawDecision approves or rejects a pending withdraw request.
type WithdrawDecision struct {
	Decision string
}

// SignatureSubmission carries a member sign-off and/or an approval. Status may be empty.
type SignatureSubmission struct {
	Status models.Status
	Member *models.AcceptedMember
}

// StatusChange sets the status flag directly.
type StatusChange struct {
	Status models.Status
}

func (WithdrawRequest) isRequest()     {}
func (WithdrawDecision) isRequest()    {}
func (SignatureSubmission) isRequest() {}
func (StatusChange) isRequest()        {}

// TransitionInput is the loosely typed form a status update arrives in.
type TransitionInput struct {
	Status            string
	Member            *models.AcceptedMember
	WithdrawRequested bool
	WithdrawStatus    string
}

var allowedStatuses = map[models.Status]bool{
	models.StatusInReview:            true,
	models.StatusInClarification:     true,
	models.StatusApproved:            true,
	models.StatusRejected:            true,
	models.StatusShortlistedApproved: true,
}

// IsAllowedTarget reports whether status may be requested through a status change.
func IsAllowedTarget(status models.Status) bool {
	return allowedStatuses[status]
}

// Classify turns the input into exactly one request variant. Withdraw requests win over
// withdraw decisions, which win over signatures and approvals, which win over plain
// status changes.
func Classify(in TransitionInput) (Request, error) {
	if in.WithdrawRequested {
		return WithdrawRequest{}, nil
	}

	switch decision := strings.ToLower(strings.TrimSpace(in.WithdrawStatus)); decision {
	case models.WithdrawApproved, models.WithdrawRejected:
		return WithdrawDecision{Decision: decision}, nil
	case "":
	default:
		return nil, apperrors.NewValidationError("withdraw_status", "must be approved or rejected")
	}

	status := models.Status(strings.ToLower(strings.TrimSpace(in.Status)))
	if status != "" && !allowedStatuses[status] {
		return nil, apperrors.NewInvalidStatusError(string(status))
	}

	if status == models.StatusApproved || in.Member != nil {
		if in.Member != nil && in.Member.MemberID == 0 {
			return nil, apperrors.RequiredError("member.member_id")
		}
		return SignatureSubmission{Status: status, Member: in.Member}, nil
	}

	if status != "" {
		return StatusChange{Status: status}, nil
	}

	return nil, apperrors.NewInvalidStatusError("")
}
