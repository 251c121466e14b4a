package workflow

import (
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
)

// Outcome is the result of applying a request to an application.
type Outcome struct {
	App *models.Application
	// StatusChanged is true when status_flag or the approval audit fields were stamped.
	StatusChanged bool
	// QuorumReached is true when the last roster member signed in this request.
	QuorumReached bool
	// Action names the audit event for the transition.
	Action string
}

// Transition applies req to a copy of app. roster is the unit's signing roster and is
// only consulted for signature submissions.
func Transition(app *models.Application, req Request, caller models.Caller, roster []models.Member, now time.Time) (Outcome, error) {
	if app == nil {
		return Outcome{}, apperrors.NewNotFoundError("application", "")
	}
	next := app.Clone()

	switch r := req.(type) {
	case WithdrawRequest:
		requestWithdraw(next, caller, now)
		return Outcome{App: next, Action: models.AuditActionWithdrawRequest}, nil

	case WithdrawDecision:
		if !next.IsWithdrawRequested {
			return Outcome{}, apperrors.NewNoWithdrawRequestError(app.ID)
		}
		decideWithdraw(next, r.Decision, caller, now)
		return Outcome{
			App:           next,
			StatusChanged: r.Decision == models.WithdrawApproved,
			Action:        models.AuditActionWithdrawDecision,
		}, nil

	case SignatureSubmission:
		return submitSignature(next, r, caller, roster, now)

	case StatusChange:
		if err := applyStatus(next, r.Status, caller, now); err != nil {
			return Outcome{}, err
		}
		return Outcome{App: next, StatusChanged: true, Action: models.AuditActionStatusChanged}, nil
	}

	return Outcome{}, apperrors.NewInvalidStatusError("")
}

func requestWithdraw(app *models.Application, caller models.Caller, now time.Time) {
	app.IsWithdrawRequested = true
	app.WithdrawStatus = models.StringPtr(models.WithdrawPending)
	app.WithdrawRequestedBy = models.StringPtr(caller.Role.String())
	app.WithdrawRequestedByUserID = models.Int64Ptr(caller.UserID)
	app.WithdrawRequestedAt = models.TimePtr(now)
}

func decideWithdraw(app *models.Application, decision string, caller models.Caller, now time.Time) {
	app.WithdrawStatus = models.StringPtr(decision)
	app.WithdrawApprovedByRole = models.StringPtr(caller.Role.String())
	app.WithdrawApprovedByUserID = models.Int64Ptr(caller.UserID)
	app.WithdrawApprovedAt = models.TimePtr(now)
	if decision == models.WithdrawApproved {
		app.Status = models.StatusWithdrawed
	}
}

// submitSignature handles approvals and member sign-offs. A member payload only moves the
// status once the whole roster has signed, except for an explicit rejection.
func submitSignature(app *models.Application, r SignatureSubmission, caller models.Caller, roster []models.Member, now time.Time) (Outcome, error) {
	out := Outcome{App: app, Action: models.AuditActionMemberSigned}

	if r.Status == models.StatusApproved {
		ClarifyApprovedParameters(app.FDS.Parameters, caller.Role)
	}

	if r.Member == nil {
		if err := applyStatus(app, r.Status, caller, now); err != nil {
			return Outcome{}, err
		}
		out.StatusChanged = true
		out.Action = models.AuditActionStatusChanged
		return out, nil
	}

	app.FDS.AcceptedMembers = UpsertAcceptedMember(app.FDS.AcceptedMembers, *r.Member, now)

	if AllMembersSigned(app.FDS.AcceptedMembers, roster) {
		out.QuorumReached = true
		if caller.Role == hierarchy.RoleCW2 {
			ApproveCW2(app, caller, now)
			out.StatusChanged = true
			return out, nil
		}
		if r.Status != models.StatusRejected {
			target := r.Status
			if target == "" {
				target = models.StatusShortlistedApproved
			}
			if err := applyStatus(app, target, caller, now); err != nil {
				return Outcome{}, err
			}
			out.StatusChanged = true
			out.Action = models.AuditActionStatusChanged
			return out, nil
		}
	}

	if r.Status == models.StatusRejected {
		if err := applyStatus(app, r.Status, caller, now); err != nil {
			return Outcome{}, err
		}
		out.StatusChanged = true
		out.Action = models.AuditActionStatusChanged
	}

	return out, nil
}

// applyStatus sets the status flag and stamps the audit fields that go with it.
func applyStatus(app *models.Application, status models.Status, caller models.Caller, now time.Time) error {
	if !allowedStatuses[status] {
		return apperrors.NewInvalidStatusError(string(status))
	}
	app.Status = status
	switch status {
	case models.StatusApproved:
		app.LastApprovedByRole = models.StringPtr(caller.Role.String())
		app.LastApprovedAt = models.TimePtr(now)
	case models.StatusShortlistedApproved:
		app.LastShortlistedApprovedRole = models.StringPtr(caller.Role.String())
	case models.StatusRejected:
		app.LastRejectedByRole = models.StringPtr(caller.Role.String())
		app.LastRejectedAt = models.TimePtr(now)
	}
	return nil
}

// ApproveCW2 records the medical-officer or operations-leader sign-off for a cw2 caller.
func ApproveCW2(app *models.Application, caller models.Caller, now time.Time) {
	isMO := caller.CW2Type == hierarchy.CW2MedicalOfficer
	isOL := caller.CW2Type == hierarchy.CW2OperationsLeader

	app.IsMOApproved = isMO
	app.MOApprovedAt = nil
	if isMO {
		app.MOApprovedAt = models.TimePtr(now)
	}
	app.IsOLApproved = isOL
	app.OLApprovedAt = nil
	if isOL {
		app.OLApprovedAt = models.TimePtr(now)
	}
	app.LastApprovedByRole = models.StringPtr(caller.Role.String())
	app.LastApprovedAt = models.TimePtr(now)
}

// ClarifyApprovedParameters moves every active clarification to the historical fields.
func ClarifyApprovedParameters(params []models.Parameter, role hierarchy.Role) {
	for i := range params {
		p := &params[i]
		if p.ClarificationID == nil {
			continue
		}
		p.LastClarificationID = p.ClarificationID
		p.LastClarificationStatus = models.StringPtr(models.ClarificationClarified)
		p.LastClarificationHandledBy = models.StringPtr(role.String())
		p.ClarificationID = nil
	}
}

// UpsertAcceptedMember merges m into members by member id. A recorded signature is never unset.
func UpsertAcceptedMember(members []models.AcceptedMember, m models.AcceptedMember, now time.Time) []models.AcceptedMember {
	out := append([]models.AcceptedMember(nil), members...)
	if m.IsSignatureAdded && m.SignatureAddedAt == nil {
		m.SignatureAddedAt = models.TimePtr(now)
	}
	for i := range out {
		if out[i].MemberID != m.MemberID {
			continue
		}
		merged := out[i]
		if m.Name != "" {
			merged.Name = m.Name
		}
		if m.Rank != "" {
			merged.Rank = m.Rank
		}
		if m.MemberType != "" {
			merged.MemberType = m.MemberType
		}
		if m.MemberOrder != 0 {
			merged.MemberOrder = m.MemberOrder
		}
		if m.IsSignatureAdded && !merged.IsSignatureAdded {
			merged.IsSignatureAdded = true
			merged.SignatureAddedAt = m.SignatureAddedAt
		}
		out[i] = merged
		return out
	}
	return append(out, m)
}

// AllMembersSigned reports whether every roster member has a signed accepted-member entry.
// An empty roster or an empty accepted list never reaches quorum.
func AllMembersSigned(accepted []models.AcceptedMember, roster []models.Member) bool {
	if len(roster) == 0 || len(accepted) == 0 {
		return false
	}
	signed := make(map[int64]bool, len(accepted))
	for _, m := range accepted {
		if m.IsSignatureAdded {
			signed[m.MemberID] = true
		}
	}
	for _, m := range roster {
		if !signed[m.ID] {
			return false
		}
	}
	return true
}
