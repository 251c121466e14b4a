package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/metrics"
	"award-review/internal/models"
	"award-review/internal/workflow"
)

// ApplicationService applies reviewer commands to applications. Every command is one
// transaction: the row is locked, the next version computed and written with its audit row.
type ApplicationService struct {
	store Store
	audit *AuditService
	now   func() time.Time
}

// NewApplicationService creates a new application service
func NewApplicationService(store Store, audit *AuditService) *ApplicationService {
	return &ApplicationService{
		store: store,
		audit: audit,
		now:   time.Now,
	}
}

// StatusUpdate is the state machine entry point input.
type StatusUpdate struct {
	Type              models.ApplicationType
	ID                int64
	Status            string
	Member            *models.AcceptedMember
	WithdrawRequested bool
	WithdrawStatus    string
}

// UpdateStatus classifies the update and applies it to the locked application.
func (s *ApplicationService) UpdateStatus(ctx context.Context, caller models.Caller, in StatusUpdate) (*models.Application, error) {
	req, err := workflow.Classify(workflow.TransitionInput{
		Status:            in.Status,
		Member:            in.Member,
		WithdrawRequested: in.WithdrawRequested,
		WithdrawStatus:    in.WithdrawStatus,
	})
	if err != nil {
		return nil, err
	}

	var roster []models.Member
	if sub, ok := req.(workflow.SignatureSubmission); ok && sub.Member != nil {
		roster, err = s.roster(ctx, caller)
		if err != nil {
			return nil, err
		}
	}

	var (
		outcome workflow.Outcome
		from    models.Status
	)
	err = s.store.WithinTx(ctx, func(tx Store) error {
		app, err := s.lock(ctx, tx, in.Type, in.ID)
		if err != nil {
			return err
		}
		from = app.Status
		if err := s.authorize(ctx, tx, caller, app, req); err != nil {
			return err
		}

		outcome, err = workflow.Transition(app, req, caller, roster, s.now())
		if err != nil {
			return err
		}
		if err := tx.Applications().Update(ctx, outcome.App); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return s.audit.Record(ctx, tx.Audit(), auditEntry(caller, outcome.Action, outcome.App, from, ""))
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordAction(outcome.Action, caller.Role.String())
	if outcome.App.Status != from {
		metrics.RecordTransition(string(in.Type), string(from), string(outcome.App.Status))
	}
	slog.Info("Application status updated",
		"application_type", in.Type,
		"application_id", in.ID,
		"action", outcome.Action,
		"from", from,
		"status", outcome.App.Status,
		"quorum_reached", outcome.QuorumReached,
		"user_id", caller.UserID,
		"role", caller.Role,
	)
	return outcome.App, nil
}

// roster returns the signing roster of the caller's own unit. Callers without a unit
// have an empty roster and never reach quorum.
func (s *ApplicationService) roster(ctx context.Context, caller models.Caller) ([]models.Member, error) {
	profile, err := s.store.Units().GetProfile(ctx, caller)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.Unit == nil {
		return nil, nil
	}
	return profile.Unit.Members, nil
}

// BulkStatusUpdate applies one status to many applications of the same type.
type BulkStatusUpdate struct {
	Type   models.ApplicationType
	IDs    []int64
	Status string
}

// BulkResult is the per-id outcome of a bulk update.
type BulkResult struct {
	ID      int64               `json:"id"`
	Success bool                `json:"success"`
	Result  *models.Application `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

var bulkStatuses = map[models.Status]bool{
	models.StatusApproved:            true,
	models.StatusRejected:            true,
	models.StatusShortlistedApproved: true,
}

// BulkUpdateStatus attempts every id independently. A failure is reported for its id
// and does not stop the others.
func (s *ApplicationService) BulkUpdateStatus(ctx context.Context, caller models.Caller, in BulkStatusUpdate) ([]BulkResult, error) {
	if len(in.IDs) == 0 {
		return nil, apperrors.RequiredError("ids")
	}
	status := models.Status(in.Status)
	if status == "" {
		status = models.StatusApproved
	}
	if !bulkStatuses[status] {
		return nil, apperrors.NewInvalidStatusError(string(status))
	}

	results := make([]BulkResult, 0, len(in.IDs))
	for _, id := range in.IDs {
		app, err := s.UpdateStatus(ctx, caller, StatusUpdate{Type: in.Type, ID: id, Status: string(status)})
		if err != nil {
			slog.Warn("Bulk status update failed", "application_type", in.Type, "application_id", id, "error", err)
			results = append(results, BulkResult{ID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{ID: id, Success: true, Result: app})
	}
	return results, nil
}

// ApproveMarks applies reviewer marks, grace marks, priority and remark in one transaction.
func (s *ApplicationService) ApproveMarks(ctx context.Context, caller models.Caller, t models.ApplicationType, id int64, in workflow.MarksApproval) (*models.Application, error) {
	return s.mutate(ctx, caller, t, id, models.AuditActionMarksApproved, func(app *models.Application, now time.Time) (*models.Application, error) {
		return workflow.ApproveMarks(app, in, caller, now)
	})
}

// AddSignature records the caller role's signature for one member.
func (s *ApplicationService) AddSignature(ctx context.Context, caller models.Caller, t models.ApplicationType, id int64, in workflow.SignatureInput) (*models.Application, error) {
	return s.mutate(ctx, caller, t, id, models.AuditActionSignatureAdded, func(app *models.Application, now time.Time) (*models.Application, error) {
		return workflow.AddSignature(app, in, caller, now)
	})
}

// AddComment upserts the caller's application and parameter comments.
func (s *ApplicationService) AddComment(ctx context.Context, caller models.Caller, t models.ApplicationType, id int64, in workflow.CommentInput) (*models.Application, error) {
	return s.mutate(ctx, caller, t, id, models.AuditActionCommented, func(app *models.Application, now time.Time) (*models.Application, error) {
		return workflow.AddComments(app, in, caller, now)
	})
}

// AuditTrail returns the audit rows of one application.
func (s *ApplicationService) AuditTrail(ctx context.Context, t models.ApplicationType, id int64) ([]models.AuditLog, error) {
	app, err := s.store.Applications().GetByID(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, apperrors.NewNotFoundError(string(t), strconv.FormatInt(id, 10))
	}
	return s.audit.History(ctx, t, id)
}

// mutate runs a document command against the locked application and persists the result.
func (s *ApplicationService) mutate(ctx context.Context, caller models.Caller, t models.ApplicationType, id int64, action string, cmd func(*models.Application, time.Time) (*models.Application, error)) (*models.Application, error) {
	var next *models.Application
	err := s.store.WithinTx(ctx, func(tx Store) error {
		app, err := s.lock(ctx, tx, t, id)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, caller, app, nil); err != nil {
			return err
		}
		next, err = cmd(app, s.now())
		if err != nil {
			return err
		}
		if err := tx.Applications().Update(ctx, next); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return s.audit.Record(ctx, tx.Audit(), auditEntry(caller, action, next, app.Status, ""))
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordAction(action, caller.Role.String())
	slog.Info("Application updated", "application_type", t, "application_id", id, "action", action, "user_id", caller.UserID, "role", caller.Role)
	return next, nil
}

// authorize checks that caller may run req against app. A nil req is a reviewer
// document command. Units may only request the withdrawal of their own applications.
func (s *ApplicationService) authorize(ctx context.Context, tx Store, caller models.Caller, app *models.Application, req workflow.Request) error {
	switch req.(type) {
	case workflow.WithdrawRequest:
		if caller.Role == hierarchy.RoleUnit {
			if app.UnitID != caller.UnitID {
				return apperrors.NewForbiddenError("units can only withdraw their own applications")
			}
			return nil
		}
	case workflow.WithdrawDecision:
		requestedBy := models.Deref(app.WithdrawRequestedBy)
		if requestedBy != "" && hierarchy.Parse(requestedBy) == caller.Role {
			return apperrors.NewForbiddenError("a withdrawal cannot be decided by the role that requested it")
		}
		if id := app.WithdrawRequestedByUserID; id != nil && *id == caller.UserID {
			return apperrors.NewForbiddenError("a withdrawal cannot be decided by its requester")
		}
	}
	return s.authorizeReviewer(ctx, tx, caller, app)
}

// authorizeReviewer allows headquarter and cw2 on every application and chain
// reviewers on the applications of the units below their own.
func (s *ApplicationService) authorizeReviewer(ctx context.Context, tx Store, caller models.Caller, app *models.Application) error {
	switch {
	case caller.Role == hierarchy.RoleHeadquarter, caller.Role == hierarchy.RoleCW2:
		return nil
	case caller.Role.Index() < 1:
		return apperrors.NewForbiddenError("only reviewing roles can act on applications")
	}

	field, err := hierarchy.SubordinateField(caller.Role)
	if err != nil {
		return err
	}
	profile, err := tx.Units().GetProfile(ctx, caller)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if profile.Unit == nil || strings.TrimSpace(profile.Unit.Name) == "" {
		return apperrors.NewProfileIncompleteError([]string{"name"})
	}
	ids, err := tx.Units().SubordinateIDs(ctx, field, profile.Unit.Name)
	if err != nil {
		return fmt.Errorf("failed to resolve subordinate units: %w", err)
	}
	if !slices.Contains(ids, app.UnitID) {
		return apperrors.NewForbiddenError("application belongs to a unit outside the caller's hierarchy")
	}
	return nil
}

func (s *ApplicationService) lock(ctx context.Context, tx Store, t models.ApplicationType, id int64) (*models.Application, error) {
	app, err := tx.Applications().GetForUpdate(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, apperrors.NewNotFoundError(string(t), strconv.FormatInt(id, 10))
	}
	return app, nil
}
