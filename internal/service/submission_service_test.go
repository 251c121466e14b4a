package service

import (
	"context"
	"errors"
	"testing"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

func newSubmissionService(s *memStore) *SubmissionService {
	return NewSubmissionService(s, NewAuditService(s))
}

func submission(params ...models.Parameter) Submission {
	return Submission{FDS: models.FDS{AwardType: "citation", CyclePeriod: "Cycle 2024", Parameters: params}}
}

func TestSubmissionCreate_ScoresParameters(t *testing.T) {
	s := newMemStore()
	seedHierarchy(s)
	seedCatalog(s)
	svc := newSubmissionService(s)

	app, err := svc.Create(context.Background(), unitCaller, models.TypeCitation, submission(
		models.Parameter{Name: " enemy kills ", Count: 7},
		models.Parameter{Name: "weapons", Count: 2},
	))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if app.Status != models.StatusInReview {
		t.Errorf("status = %s, want in_review", app.Status)
	}
	if app.UnitID != 10 || app.FDS.Command != "North Comd" {
		t.Errorf("unit_id = %d, command = %q", app.UnitID, app.FDS.Command)
	}
	kills := app.FDS.Parameters[0]
	if kills.Name != "Enemy Kills" || kills.Marks != 10 || kills.Info != "1 Enemy Kills = 2 marks (Max 10 marks)" {
		t.Errorf("capped parameter = %+v", kills)
	}
	if recovery := app.FDS.Parameters[1]; recovery.Name != "Recovery" || recovery.Marks != 2 {
		t.Errorf("subcategory match = %+v", recovery)
	}
	if s.app(models.TypeCitation, app.ID) == nil {
		t.Error("application not stored")
	}
	if len(s.audit.logs) != 1 || s.audit.logs[0].Action != models.AuditActionCreated {
		t.Errorf("audit = %+v", s.audit.logs)
	}
}

func TestSubmissionCreate_Rejections(t *testing.T) {
	s := newMemStore()
	seedHierarchy(s)
	seedCatalog(s)
	svc := newSubmissionService(s)
	ctx := context.Background()

	tests := []struct {
		name   string
		caller models.Caller
		in     Submission
		want   error
	}{
		{"reviewer cannot submit", brigadeCaller, submission(), apperrors.ErrForbidden},
		{"incomplete profile", models.Caller{UserID: 12, Role: "unit", UnitID: 12}, submission(), apperrors.ErrProfileIncomplete},
		{"unknown unit", models.Caller{UserID: 13, Role: "unit", UnitID: 404}, submission(), apperrors.ErrProfileIncomplete},
		{"unknown parameter", unitCaller, submission(models.Parameter{Name: "Parade", Count: 1}), apperrors.ErrParameterNotFound},
		{"missing award type", unitCaller, Submission{}, apperrors.ErrValidation},
		{"bad status", unitCaller, Submission{FDS: models.FDS{AwardType: "citation"}, Status: models.StatusApproved}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.caller, models.TypeCitation, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(s.apps.rows) != 0 {
		t.Errorf("nothing should be stored, got %d rows", len(s.apps.rows))
	}
}

func TestSubmissionCreate_StripsReviewerFields(t *testing.T) {
	s := newMemStore()
	seedHierarchy(s)
	seedCatalog(s)
	svc := newSubmissionService(s)
	marks := 99.0

	in := submission(models.Parameter{Name: "Recovery", Count: 1, ApprovedMarks: &marks, ClarificationID: models.Int64Ptr(3)})
	in.FDS.GraceMarks = []models.GraceMark{{Role: "command", Marks: 50}}
	in.Status = models.StatusDraft

	app, err := svc.Create(context.Background(), unitCaller, models.TypeCitation, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if app.Status != models.StatusDraft {
		t.Errorf("status = %s, want draft", app.Status)
	}
	p := app.FDS.Parameters[0]
	if p.ApprovedMarks != nil || p.ClarificationID != nil {
		t.Errorf("reviewer fields leaked into submission: %+v", p)
	}
	if len(app.FDS.GraceMarks) != 0 {
		t.Errorf("grace marks leaked: %+v", app.FDS.GraceMarks)
	}
}

func TestSubmissionUpdate_CarriesReviewerFieldsAndPromotesDraft(t *testing.T) {
	s := newMemStore()
	seedHierarchy(s)
	seedCatalog(s)
	svc := newSubmissionService(s)
	ctx := context.Background()

	approved := 1.0
	existing := sampleApp(10, models.StatusDraft)
	existing.FDS.Parameters[1].ClarificationID = models.Int64Ptr(7)
	existing.FDS.Parameters[1].ApprovedMarks = &approved
	existing.FDS.Priorities = []models.PriorityEntry{{Role: "brigade", Priority: 1}}
	existing = s.add(existing)

	in := submission(models.Parameter{Name: "Recovery", Count: 3}, models.Parameter{Name: "Enemy Kills", Count: 1})
	in.Status = models.StatusInReview
	got, err := svc.Update(ctx, unitCaller, models.TypeCitation, existing.ID, in)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got.Status != models.StatusInReview {
		t.Errorf("draft not promoted: %s", got.Status)
	}
	if len(got.FDS.Parameters) != 2 {
		t.Fatalf("parameters = %+v", got.FDS.Parameters)
	}
	recovery := got.FDS.Parameters[0]
	if recovery.Marks != 3 {
		t.Errorf("recovery not rescored: %+v", recovery)
	}
	if recovery.ClarificationID == nil || *recovery.ClarificationID != 7 || recovery.ApprovedMarks == nil {
		t.Errorf("reviewer fields not carried over: %+v", recovery)
	}
	if len(got.FDS.Priorities) != 1 {
		t.Errorf("reviewer lists must survive an edit: %+v", got.FDS.Priorities)
	}
}

func TestSubmissionUpdate_Rejections(t *testing.T) {
	s := newMemStore()
	seedHierarchy(s)
	seedCatalog(s)
	svc := newSubmissionService(s)
	ctx := context.Background()

	other := s.add(sampleApp(11, models.StatusInReview))
	approved := s.add(sampleApp(10, models.StatusApproved))

	if _, err := svc.Update(ctx, unitCaller, models.TypeCitation, other.ID, submission()); !apperrors.IsForbidden(err) {
		t.Errorf("other unit: expected forbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, unitCaller, models.TypeCitation, approved.ID, submission()); !apperrors.IsValidationError(err) {
		t.Errorf("approved application: expected validation error, got %v", err)
	}
	if _, err := svc.Update(ctx, unitCaller, models.TypeCitation, 999, submission()); !apperrors.IsNotFound(err) {
		t.Errorf("missing application: expected not found, got %v", err)
	}
}

func TestCarryReviewerFields(t *testing.T) {
	marks := 2.0
	previous := []models.Parameter{{Name: "Recovery", ApprovedMarks: &marks, Comments: []models.Comment{{Comment: "ok"}}}}
	rescored := []models.Parameter{{Name: "recovery"}, {Name: "Enemy Kills"}}

	out := CarryReviewerFields(previous, rescored)
	if out[0].ApprovedMarks == nil || len(out[0].Comments) != 1 {
		t.Errorf("matching name not carried: %+v", out[0])
	}
	if out[1].ApprovedMarks != nil {
		t.Errorf("new parameter must start clean: %+v", out[1])
	}
}
