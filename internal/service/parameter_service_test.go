package service

import (
	"context"
	"testing"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

func TestParameterList(t *testing.T) {
	s := newMemStore()
	svc := NewParameterService(s)
	ctx := context.Background()

	empty, err := svc.List(ctx, "citation")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected an empty non-nil list, got %#v", empty)
	}

	seedCatalog(s)
	params, err := svc.List(ctx, " citation ")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(params) != 3 {
		t.Errorf("expected 3 parameters, got %d", len(params))
	}
}

func TestParameterGet(t *testing.T) {
	s := newMemStore()
	seedCatalog(s)
	svc := NewParameterService(s)

	p, err := svc.Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name != "Recovery" {
		t.Errorf("name = %q", p.Name)
	}
	if _, err := svc.Get(context.Background(), 99); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestParameterCreate(t *testing.T) {
	tests := []struct {
		name    string
		caller  models.Caller
		param   models.ParameterMaster
		wantErr func(error) bool
	}{
		{"headquarter creates", hqCaller, models.ParameterMaster{Name: " Rescue ", AwardType: "Citation", PerUnitMark: 1, MaxMarks: 4}, nil},
		{"command is forbidden", commandCaller, models.ParameterMaster{Name: "Rescue", AwardType: "citation"}, apperrors.IsForbidden},
		{"name required", hqCaller, models.ParameterMaster{AwardType: "citation"}, apperrors.IsValidationError},
		{"award type required", hqCaller, models.ParameterMaster{Name: "Rescue"}, apperrors.IsValidationError},
		{"negative marks", hqCaller, models.ParameterMaster{Name: "Rescue", AwardType: "citation", MaxMarks: -1}, apperrors.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			svc := NewParameterService(s)
			p := tt.param
			err := svc.Create(context.Background(), tt.caller, &p)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Errorf("unexpected error: %v", err)
				}
				if len(s.params.catalog) != 0 {
					t.Error("nothing should be stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if p.ID == 0 || p.Name != "Rescue" || p.AwardType != "citation" {
				t.Errorf("parameter not normalized: %+v", p)
			}
		})
	}
}

func TestParameterUpdateAndDelete(t *testing.T) {
	s := newMemStore()
	seedCatalog(s)
	svc := NewParameterService(s)
	ctx := context.Background()

	p := s.params.catalog[0]
	p.MaxMarks = 20
	if err := svc.Update(ctx, hqCaller, &p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if s.params.catalog[0].MaxMarks != 20 {
		t.Errorf("max marks not stored: %+v", s.params.catalog[0])
	}
	missing := models.ParameterMaster{ID: 404, Name: "Ghost", AwardType: "citation"}
	if err := svc.Update(ctx, hqCaller, &missing); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := svc.Delete(ctx, unitCaller, 1); !apperrors.IsForbidden(err) {
		t.Errorf("unit delete: expected forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, hqCaller, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(s.params.catalog) != 2 {
		t.Errorf("expected 2 parameters left, got %d", len(s.params.catalog))
	}
}
