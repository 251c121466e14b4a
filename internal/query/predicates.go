package query

import (
	"strings"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
)

// Predicate is a WHERE clause over the application tables with its positional
// arguments. Slice arguments are bound with pq.Array by the repository.
type Predicate struct {
	Where string
	Args  []any
}

// UnitOwn selects the applications a unit submitted, drafts included.
func UnitOwn(unitID int64) Predicate {
	return Predicate{Where: "unit_id = $1", Args: []any{unitID}}
}

// Subordinate selects the review, shortlist or withdrawal queue of a superior over
// the given subordinate units. The first matching queue in the order withdrawal,
// shortlist, first-level review, ordinary review wins.
func Subordinate(caller models.Caller, unitIDs []int64, f Filter) (Predicate, error) {
	lower, ok := hierarchy.LowerRole(caller.Role)
	if !ok {
		return Predicate{}, apperrors.NewValidationError("role", "role has no subordinate queue")
	}
	role := caller.Role.String()

	switch {
	case f.IsGetWithdrawRequests:
		return Predicate{
			Where: `unit_id = ANY($1)
				AND (
					(is_withdraw_requested = TRUE AND withdraw_status = 'pending')
					OR (withdraw_approved_by_role = $2 AND withdraw_approved_by_user_id = $3
						AND status_flag IN ('approved', 'rejected', 'withdrawed'))
				)
				AND status_flag IN ('approved', 'withdrawed')
				AND last_approved_by_role = $4`,
			Args: []any{unitIDs, role, caller.UserID, lower.String()},
		}, nil

	case f.IsShortlisted && caller.Role == hierarchy.RoleCommand:
		return Predicate{
			Where: `unit_id = ANY($1)
				AND (
					(status_flag = 'shortlisted_approved' AND last_shortlisted_approved_role = $2)
					OR (status_flag = 'approved' AND last_approved_by_role = $2)
				)`,
			Args: []any{unitIDs, lower.String()},
		}, nil

	case f.IsShortlisted:
		// For brigade this is the unit-level shortlist.
		return Predicate{
			Where: `unit_id = ANY($1)
				AND status_flag = 'shortlisted_approved'
				AND last_shortlisted_approved_role = $2`,
			Args: []any{unitIDs, lower.String()},
		}, nil

	case caller.Role == hierarchy.RoleBrigade:
		return Predicate{
			Where: `unit_id = ANY($1)
				AND status_flag NOT IN ('approved', 'draft', 'shortlisted_approved', 'rejected')
				AND (last_approved_by_role IS NULL OR last_approved_at IS NULL)`,
			Args: []any{unitIDs},
		}, nil
	}

	return Predicate{
		Where: `unit_id = ANY($1)
			AND status_flag = 'approved'
			AND last_approved_by_role = $2`,
		Args: []any{unitIDs, lower.String()},
	}, nil
}

// hqReviewColumns routes cw2 reviewers to the applications flagged for them.
var hqReviewColumns = map[string]string{
	hierarchy.CW2HumanResources:    "is_hr_review",
	hierarchy.CW2DisciplineVetting: "is_dv_review",
	hierarchy.CW2MilitaryPolice:    "is_mp_review",
}

// HQ selects the applications approved by command. A cw2 caller of a routed type
// only sees applications flagged for review by that type.
func HQ(caller models.Caller) Predicate {
	where := "status_flag = 'approved' AND last_approved_by_role = 'command'"
	if caller.Role == hierarchy.RoleCW2 {
		if col, ok := hqReviewColumns[strings.ToLower(caller.CW2Type)]; ok {
			where += " AND " + col + " = TRUE"
		}
	}
	return Predicate{Where: where}
}

// Scoreboard selects command-approved applications, limited to unitIDs when scoped.
func Scoreboard(unitIDs []int64, scoped bool) Predicate {
	if !scoped {
		return Predicate{Where: "status_flag = 'approved' AND last_approved_by_role = 'command'"}
	}
	return Predicate{
		Where: "unit_id = ANY($1) AND status_flag = 'approved' AND last_approved_by_role = 'command'",
		Args:  []any{unitIDs},
	}
}

// History selects what the caller's level already acted on: approvals at or above
// it, rejections below command, and withdrawals the caller's role requested.
func History(caller models.Caller, unitIDs []int64) (Predicate, error) {
	allowed := hierarchy.RolesFrom(caller.Role)
	if len(allowed) == 0 {
		return Predicate{}, apperrors.NewValidationError("role", "invalid role for history")
	}
	lower := allowed[:len(allowed)-1]

	return Predicate{
		Where: `unit_id = ANY($1)
			AND (
				(status_flag IN ('approved', 'shortlisted_approved') AND last_approved_by_role = ANY($2))
				OR (status_flag = 'rejected' AND last_approved_by_role = ANY($3))
				OR (status_flag = 'withdrawed' AND withdraw_requested_by = ANY($4))
			)`,
		Args: []any{
			unitIDs,
			hierarchy.Strings(allowed),
			hierarchy.Strings(lower),
			[]string{caller.Role.String()},
		},
	}, nil
}

// CW2History selects the applications signed off by the caller's cw2 type.
func CW2History(cw2Type string) (Predicate, error) {
	switch strings.ToLower(cw2Type) {
	case hierarchy.CW2MedicalOfficer:
		return Predicate{Where: "is_mo_approved = TRUE"}, nil
	case hierarchy.CW2OperationsLeader:
		return Predicate{Where: "is_ol_approved = TRUE"}, nil
	}
	return Predicate{}, apperrors.NewValidationError("cw2_type", "history requires cw2 type mo or ol")
}

// All selects the caller's overall view. Headquarter sees every submitted
// application; other roles see their subtree up to their own approval level plus
// fresh submissions that no level has approved yet.
func All(caller models.Caller, unitIDs []int64) (Predicate, error) {
	if caller.Role == hierarchy.RoleHeadquarter {
		return Predicate{Where: "status_flag <> 'draft'"}, nil
	}
	allowed := hierarchy.RolesUpTo(caller.Role)
	if len(allowed) == 0 {
		return Predicate{}, apperrors.NewValidationError("role", "invalid role")
	}

	return Predicate{
		Where: `unit_id = ANY($1)
			AND (
				(status_flag IN ('approved', 'rejected', 'shortlisted_approved') AND last_approved_by_role = ANY($2))
				OR (status_flag = 'in_review' AND last_approved_by_role IS NULL AND last_approved_at IS NULL)
				OR (status_flag = 'rejected' AND last_approved_by_role IS NULL AND last_approved_at IS NULL)
			)`,
		Args: []any{unitIDs, hierarchy.Strings(allowed)},
	}, nil
}
