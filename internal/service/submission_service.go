package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/metrics"
	"award-review/internal/models"
	"award-review/internal/scoring"
)

// SubmissionService creates and edits applications on behalf of the submitting unit
type SubmissionService struct {
	store Store
	audit *AuditService
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(store Store, audit *AuditService) *SubmissionService {
	return &SubmissionService{store: store, audit: audit}
}

// Submission is the unit-authored part of an application.
type Submission struct {
	FDS models.FDS
	// Status is draft or in_review. Empty means in_review on create and unchanged on update.
	Status models.Status
}

func (in Submission) validate() error {
	if strings.TrimSpace(in.FDS.AwardType) == "" {
		return apperrors.RequiredError("fds.award_type")
	}
	switch in.Status {
	case "", models.StatusDraft, models.StatusInReview:
		return nil
	}
	return apperrors.NewValidationError("status_flag", "must be draft or in_review")
}

// Create scores the submitted parameters against the catalog of the award type and
// stores a new application for the caller's unit.
func (s *SubmissionService) Create(ctx context.Context, caller models.Caller, t models.ApplicationType, in Submission) (*models.Application, error) {
	if caller.Role != hierarchy.RoleUnit {
		return nil, apperrors.NewForbiddenError("only units can submit applications")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	unit, err := s.submitterUnit(ctx, caller)
	if err != nil {
		return nil, err
	}

	params, err := s.score(ctx, in.FDS)
	if err != nil {
		return nil, err
	}

	fds := submittedFDS(in.FDS)
	fds.Parameters = params
	if fds.Command == "" {
		fds.Command = unit.Comd
	}

	status := in.Status
	if status == "" {
		status = models.StatusInReview
	}
	app := &models.Application{
		Type:   t,
		UnitID: unit.ID,
		Status: status,
		FDS:    fds,
	}

	err = s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Applications().Create(ctx, app); err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		return s.audit.Record(ctx, tx.Audit(), auditEntry(caller, models.AuditActionCreated, app, "", ""))
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordAction(models.AuditActionCreated, caller.Role.String())
	slog.Info("Application created", "application_type", t, "application_id", app.ID, "unit_id", app.UnitID, "status", app.Status)
	return app, nil
}

// Update replaces the unit-authored document of an application the caller's unit owns.
// Parameters are rescored; reviewer-side fields of parameters whose names did not
// change are carried over. A draft may be promoted to in_review.
func (s *SubmissionService) Update(ctx context.Context, caller models.Caller, t models.ApplicationType, id int64, in Submission) (*models.Application, error) {
	if caller.Role != hierarchy.RoleUnit {
		return nil, apperrors.NewForbiddenError("only the submitting unit can edit an application")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.submitterUnit(ctx, caller); err != nil {
		return nil, err
	}

	params, err := s.score(ctx, in.FDS)
	if err != nil {
		return nil, err
	}

	var next *models.Application
	err = s.store.WithinTx(ctx, func(tx Store) error {
		app, err := tx.Applications().GetForUpdate(ctx, t, id)
		if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}
		if app == nil {
			return apperrors.NewNotFoundError(string(t), fmt.Sprint(id))
		}
		if app.UnitID != caller.UnitID {
			return apperrors.NewForbiddenError("application belongs to another unit")
		}
		if !editable[app.Status] {
			return apperrors.NewValidationError("status_flag", fmt.Sprintf("application in status %s can no longer be edited", app.Status))
		}

		next = app.Clone()
		fds := submittedFDS(in.FDS)
		next.FDS.AwardType = fds.AwardType
		next.FDS.CyclePeriod = fds.CyclePeriod
		if fds.Command != "" {
			next.FDS.Command = fds.Command
		}
		next.FDS.Extra = fds.Extra
		next.FDS.Parameters = CarryReviewerFields(app.FDS.Parameters, params)

		if app.Status == models.StatusDraft && in.Status == models.StatusInReview {
			next.Status = models.StatusInReview
		}

		if err := tx.Applications().Update(ctx, next); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return s.audit.Record(ctx, tx.Audit(), auditEntry(caller, models.AuditActionUpdated, next, app.Status, ""))
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordAction(models.AuditActionUpdated, caller.Role.String())
	slog.Info("Application updated by unit", "application_type", t, "application_id", id, "status", next.Status)
	return next, nil
}

var editable = map[models.Status]bool{
	models.StatusDraft:           true,
	models.StatusInReview:        true,
	models.StatusInClarification: true,
}

// submitterUnit loads the caller's unit and checks the profile fields a submission needs.
func (s *SubmissionService) submitterUnit(ctx context.Context, caller models.Caller) (*models.Unit, error) {
	profile, err := s.store.Units().GetProfile(ctx, caller)
	if apperrors.IsNotFound(err) {
		return nil, hierarchy.ValidateSubmitterProfile(nil, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.Unit == nil {
		return nil, hierarchy.ValidateSubmitterProfile(nil, false)
	}
	if err := hierarchy.ValidateSubmitterProfile(profile.Unit, profile.Unit.IsSpecial); err != nil {
		return nil, err
	}
	return profile.Unit, nil
}

func (s *SubmissionService) score(ctx context.Context, fds models.FDS) ([]models.Parameter, error) {
	catalog, err := s.store.Parameters().ListByAwardType(ctx, fds.AwardType)
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter catalog: %w", err)
	}
	params := make([]models.Parameter, len(fds.Parameters))
	for i, p := range fds.Parameters {
		params[i] = submittedParameter(p)
	}
	return scoring.ScoreParameters(fds.AwardType, params, catalog)
}

// submittedFDS keeps only what a unit may author. Reviewer-side lists are dropped.
func submittedFDS(in models.FDS) models.FDS {
	c := in.Clone()
	return models.FDS{
		AwardType:   strings.TrimSpace(c.AwardType),
		CyclePeriod: c.CyclePeriod,
		Command:     c.Command,
		Parameters:  c.Parameters,
		Extra:       c.Extra,
	}
}

func submittedParameter(p models.Parameter) models.Parameter {
	c := p.Clone()
	c.ClarificationID = nil
	c.LastClarificationID = nil
	c.LastClarificationStatus = nil
	c.LastClarificationHandledBy = nil
	c.ClarificationDetails = nil
	c.Comments = nil
	c.ApprovedMarks = nil
	c.ApprovedByUser = nil
	c.ApprovedByRole = nil
	c.ApprovedMarksAt = nil
	return c
}

// CarryReviewerFields copies clarification links, comments and approved marks from
// previous onto the rescored parameters with the same normalized name.
func CarryReviewerFields(previous, rescored []models.Parameter) []models.Parameter {
	byName := make(map[string]models.Parameter, len(previous))
	for _, p := range previous {
		byName[scoring.NormalizeName(p.Name)] = p
	}
	out := make([]models.Parameter, len(rescored))
	for i, p := range rescored {
		if old, ok := byName[scoring.NormalizeName(p.Name)]; ok {
			p.ClarificationID = old.ClarificationID
			p.LastClarificationID = old.LastClarificationID
			p.LastClarificationStatus = old.LastClarificationStatus
			p.LastClarificationHandledBy = old.LastClarificationHandledBy
			p.Comments = append([]models.Comment(nil), old.Comments...)
			p.ApprovedMarks = old.ApprovedMarks
			p.ApprovedByUser = old.ApprovedByUser
			p.ApprovedByRole = old.ApprovedByRole
			p.ApprovedMarksAt = old.ApprovedMarksAt
		}
		out[i] = p
	}
	return out
}
