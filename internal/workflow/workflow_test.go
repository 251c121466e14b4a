package workflow

import (
	"errors"
	"testing"
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
)

var now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func brigade() models.Caller {
	return models.Caller{UserID: 20, Role: hierarchy.RoleBrigade, UnitID: 2}
}

func newApp() *models.Application {
	return &models.Application{
		ID:     1,
		Type:   models.TypeCitation,
		UnitID: 10,
		Status: models.StatusInReview,
		FDS: models.FDS{
			AwardType:   "citation",
			CyclePeriod: "2024-H1",
			Parameters: []models.Parameter{
				{Name: "Enemy Kills", Count: 2, Marks: 8, ClarificationID: models.Int64Ptr(55)},
				{Name: "Recovery", Count: 1, Marks: 2},
			},
		},
	}
}

func TestClassify(t *testing.T) {
	member := &models.AcceptedMember{MemberID: 1}
	tests := []struct {
		name string
		in   TransitionInput
		want Request
	}{
		{"withdraw request wins", TransitionInput{WithdrawRequested: true, WithdrawStatus: "approved", Status: "approved"}, WithdrawRequest{}},
		{"withdraw decision", TransitionInput{WithdrawStatus: "Rejected", Status: "approved"}, WithdrawDecision{Decision: "rejected"}},
		{"approve", TransitionInput{Status: "APPROVED"}, SignatureSubmission{Status: models.StatusApproved}},
		{"member only", TransitionInput{Member: member}, SignatureSubmission{Member: member}},
		{"plain status", TransitionInput{Status: "shortlisted_approved"}, StatusChange{Status: models.StatusShortlistedApproved}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	if _, err := Classify(TransitionInput{}); !errors.Is(err, apperrors.ErrInvalidStatus) {
		t.Errorf("empty input: expected ErrInvalidStatus, got %v", err)
	}
	if _, err := Classify(TransitionInput{Status: "withdrawed"}); !errors.Is(err, apperrors.ErrInvalidStatus) {
		t.Errorf("withdrawed target: expected ErrInvalidStatus, got %v", err)
	}
	if _, err := Classify(TransitionInput{WithdrawStatus: "maybe"}); !apperrors.IsValidationError(err) {
		t.Errorf("bad withdraw status: expected validation error, got %v", err)
	}
	if _, err := Classify(TransitionInput{Member: &models.AcceptedMember{}}); !apperrors.IsValidationError(err) {
		t.Errorf("member without id: expected validation error, got %v", err)
	}
}

func TestWithdrawFlow(t *testing.T) {
	app := newApp()
	unit := models.Caller{UserID: 5, Role: hierarchy.RoleUnit, UnitID: 10}

	out, err := Transition(app, WithdrawRequest{}, unit, nil, now)
	if err != nil {
		t.Fatalf("withdraw request: %v", err)
	}
	requested := out.App
	if !requested.IsWithdrawRequested || models.Deref(requested.WithdrawStatus) != models.WithdrawPending {
		t.Fatalf("withdraw request not recorded: %+v", requested)
	}
	if models.Deref(requested.WithdrawRequestedBy) != "unit" || *requested.WithdrawRequestedByUserID != 5 {
		t.Errorf("requester not recorded")
	}
	if app.IsWithdrawRequested {
		t.Error("input application must not be modified")
	}

	t.Run("approved forces withdrawed", func(t *testing.T) {
		out, err := Transition(requested, WithdrawDecision{Decision: models.WithdrawApproved}, brigade(), nil, now)
		if err != nil {
			t.Fatalf("decision: %v", err)
		}
		if out.App.Status != models.StatusWithdrawed || models.Deref(out.App.WithdrawStatus) != models.WithdrawApproved {
			t.Errorf("status = %s, withdraw_status = %s", out.App.Status, models.Deref(out.App.WithdrawStatus))
		}
		if models.Deref(out.App.WithdrawApprovedByRole) != "brigade" {
			t.Error("approver role not recorded")
		}
	})

	t.Run("rejected keeps status", func(t *testing.T) {
		out, err := Transition(requested, WithdrawDecision{Decision: models.WithdrawRejected}, brigade(), nil, now)
		if err != nil {
			t.Fatalf("decision: %v", err)
		}
		if out.App.Status != models.StatusInReview || models.Deref(out.App.WithdrawStatus) != models.WithdrawRejected {
			t.Errorf("status = %s, withdraw_status = %s", out.App.Status, models.Deref(out.App.WithdrawStatus))
		}
	})

	t.Run("decision without request", func(t *testing.T) {
		_, err := Transition(app, WithdrawDecision{Decision: models.WithdrawApproved}, brigade(), nil, now)
		if !errors.Is(err, apperrors.ErrNoWithdrawRequest) {
			t.Errorf("expected ErrNoWithdrawRequest, got %v", err)
		}
	})
}

func TestApproveResolvesClarificationsAndStampsRole(t *testing.T) {
	app := newApp()

	out, err := Transition(app, SignatureSubmission{Status: models.StatusApproved}, brigade(), nil, now)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	next := out.App
	if !out.StatusChanged || next.Status != models.StatusApproved {
		t.Fatalf("expected approved, got %s", next.Status)
	}
	if models.Deref(next.LastApprovedByRole) != "brigade" || next.LastApprovedAt == nil {
		t.Error("approval audit fields not stamped")
	}
	p := next.FDS.Parameters[0]
	if p.ClarificationID != nil || p.LastClarificationID == nil || *p.LastClarificationID != 55 {
		t.Errorf("clarification not moved to history: %+v", p)
	}
	if models.Deref(p.LastClarificationStatus) != models.ClarificationClarified || models.Deref(p.LastClarificationHandledBy) != "brigade" {
		t.Errorf("history fields wrong: %+v", p)
	}
	if app.FDS.Parameters[0].ClarificationID == nil {
		t.Error("input application must not be modified")
	}
}

func TestStatusChangeEffects(t *testing.T) {
	tests := []struct {
		status models.Status
		check  func(*models.Application) bool
	}{
		{models.StatusShortlistedApproved, func(a *models.Application) bool {
			return models.Deref(a.LastShortlistedApprovedRole) == "brigade" && a.LastApprovedByRole == nil
		}},
		{models.StatusRejected, func(a *models.Application) bool {
			return models.Deref(a.LastRejectedByRole) == "brigade" && a.LastRejectedAt != nil
		}},
		{models.StatusInClarification, func(a *models.Application) bool {
			return a.LastRejectedByRole == nil && a.LastApprovedByRole == nil
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			out, err := Transition(newApp(), StatusChange{Status: tt.status}, brigade(), nil, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.App.Status != tt.status || !tt.check(out.App) {
				t.Errorf("unexpected result %+v", out.App)
			}
		})
	}

	if _, err := Transition(newApp(), StatusChange{Status: models.StatusDraft}, brigade(), nil, now); !errors.Is(err, apperrors.ErrInvalidStatus) {
		t.Errorf("draft target: expected ErrInvalidStatus, got %v", err)
	}
}

func TestQuorumGating(t *testing.T) {
	roster := []models.Member{{ID: 1}, {ID: 2}, {ID: 3}}
	app := newApp()

	// N-1 signatures: no transition.
	for _, id := range []int64{1, 2} {
		req := SignatureSubmission{Status: models.StatusApproved, Member: &models.AcceptedMember{MemberID: id, IsSignatureAdded: true}}
		out, err := Transition(app, req, brigade(), roster, now)
		if err != nil {
			t.Fatalf("signature %d: %v", id, err)
		}
		if out.StatusChanged || out.QuorumReached {
			t.Fatalf("signature %d must not trigger a transition", id)
		}
		if out.App.Status != models.StatusInReview || out.App.LastApprovedByRole != nil {
			t.Fatalf("status moved before quorum: %s", out.App.Status)
		}
		app = out.App
	}

	// Nth signature: exactly one transition.
	req := SignatureSubmission{Status: models.StatusApproved, Member: &models.AcceptedMember{MemberID: 3, IsSignatureAdded: true}}
	out, err := Transition(app, req, brigade(), roster, now)
	if err != nil {
		t.Fatalf("last signature: %v", err)
	}
	if !out.QuorumReached || !out.StatusChanged {
		t.Fatal("last signature must reach quorum and transition")
	}
	if out.App.Status != models.StatusApproved || models.Deref(out.App.LastApprovedByRole) != "brigade" {
		t.Errorf("unexpected status %s", out.App.Status)
	}
	if len(out.App.FDS.AcceptedMembers) != 3 {
		t.Errorf("accepted members = %d, want 3", len(out.App.FDS.AcceptedMembers))
	}
}

func TestQuorumDefaultsToShortlist(t *testing.T) {
	roster := []models.Member{{ID: 1}}
	req := SignatureSubmission{Member: &models.AcceptedMember{MemberID: 1, IsSignatureAdded: true}}
	out, err := Transition(newApp(), req, brigade(), roster, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.App.Status != models.StatusShortlistedApproved {
		t.Errorf("status = %s, want shortlisted_approved", out.App.Status)
	}
}

func TestRejectWithMemberSkipsQuorum(t *testing.T) {
	roster := []models.Member{{ID: 1}, {ID: 2}}
	req := SignatureSubmission{Status: models.StatusRejected, Member: &models.AcceptedMember{MemberID: 1, IsSignatureAdded: true}}
	out, err := Transition(newApp(), req, brigade(), roster, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.App.Status != models.StatusRejected || models.Deref(out.App.LastRejectedByRole) != "brigade" {
		t.Errorf("expected rejection, got %s", out.App.Status)
	}
}

func TestCW2Quorum(t *testing.T) {
	roster := []models.Member{{ID: 1}}
	caller := models.Caller{UserID: 9, Role: hierarchy.RoleCW2, CW2Type: hierarchy.CW2MedicalOfficer}
	req := SignatureSubmission{Status: models.StatusApproved, Member: &models.AcceptedMember{MemberID: 1, IsSignatureAdded: true}}

	out, err := Transition(newApp(), req, caller, roster, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := out.App
	if !a.IsMOApproved || a.MOApprovedAt == nil || a.IsOLApproved || a.OLApprovedAt != nil {
		t.Errorf("mo approval not recorded: %+v", a)
	}
	if models.Deref(a.LastApprovedByRole) != "cw2" {
		t.Errorf("last_approved_by_role = %q", models.Deref(a.LastApprovedByRole))
	}
	if a.Status != models.StatusInReview {
		t.Errorf("cw2 approval must not change status_flag, got %s", a.Status)
	}
}

func TestUpsertAcceptedMemberKeepsSignature(t *testing.T) {
	members := UpsertAcceptedMember(nil, models.AcceptedMember{MemberID: 1, IsSignatureAdded: true, Name: "A"}, now)
	members = UpsertAcceptedMember(members, models.AcceptedMember{MemberID: 1, IsSignatureAdded: false, Rank: "Maj"}, now)

	if len(members) != 1 {
		t.Fatalf("expected one entry, got %d", len(members))
	}
	m := members[0]
	if !m.IsSignatureAdded || m.Name != "A" || m.Rank != "Maj" {
		t.Errorf("merge result %+v", m)
	}
}

func TestAllMembersSigned(t *testing.T) {
	roster := []models.Member{{ID: 1}, {ID: 2}}
	if AllMembersSigned(nil, roster) {
		t.Error("empty accepted list cannot reach quorum")
	}
	if AllMembersSigned([]models.AcceptedMember{{MemberID: 1, IsSignatureAdded: true}}, nil) {
		t.Error("empty roster cannot reach quorum")
	}
	accepted := []models.AcceptedMember{{MemberID: 1, IsSignatureAdded: true}, {MemberID: 2, IsSignatureAdded: false}}
	if AllMembersSigned(accepted, roster) {
		t.Error("unsigned member must block quorum")
	}
	accepted[1].IsSignatureAdded = true
	if !AllMembersSigned(accepted, roster) {
		t.Error("all signed should reach quorum")
	}
}
