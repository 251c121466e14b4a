package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/metrics"
	"award-review/internal/models"
	"award-review/internal/workflow"
)

// ClarificationService raises clarifications against parameters and records responses
type ClarificationService struct {
	store Store
	audit *AuditService
	now   func() time.Time
}

// NewClarificationService creates a new clarification service
func NewClarificationService(store Store, audit *AuditService) *ClarificationService {
	return &ClarificationService{store: store, audit: audit, now: time.Now}
}

// RaiseClarification asks the submitting unit about one parameter.
type RaiseClarification struct {
	Type            models.ApplicationType
	ApplicationID   int64
	ParameterName   string
	ReviewerComment string
}

// Raise creates a pending clarification and links it from the named parameter.
// Both writes commit together.
func (s *ClarificationService) Raise(ctx context.Context, caller models.Caller, in RaiseClarification) (*models.Clarification, error) {
	if caller.Role == hierarchy.RoleUnit {
		return nil, apperrors.NewForbiddenError("units cannot raise clarifications")
	}
	if strings.TrimSpace(in.ParameterName) == "" {
		return nil, apperrors.RequiredError("parameter_name")
	}

	c := &models.Clarification{
		ApplicationType:     in.Type,
		ApplicationID:       in.ApplicationID,
		ParameterName:       strings.TrimSpace(in.ParameterName),
		ClarificationByID:   caller.UserID,
		ClarificationByRole: caller.Role.String(),
		ClarificationStatus: models.ClarificationPending,
		ReviewerComment:     in.ReviewerComment,
	}

	err := s.store.WithinTx(ctx, func(tx Store) error {
		app, err := tx.Applications().GetForUpdate(ctx, in.Type, in.ApplicationID)
		if err != nil {
			return fmt.Errorf("failed to get application: %w", err)
		}
		if app == nil {
			return apperrors.NewNotFoundError(string(in.Type), fmt.Sprint(in.ApplicationID))
		}
		if err := tx.Clarifications().Create(ctx, c); err != nil {
			return err
		}
		next, err := workflow.AttachClarification(app, c.ParameterName, c.ID)
		if err != nil {
			return err
		}
		if err := tx.Applications().Update(ctx, next); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return s.audit.Record(ctx, tx.Audit(), auditEntry(caller, models.AuditActionClarification, next, app.Status, c.ParameterName))
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordAction(models.AuditActionClarification, caller.Role.String())
	slog.Info("Clarification raised", "clarification_id", c.ID, "application_type", in.Type, "application_id", in.ApplicationID, "parameter", c.ParameterName, "role", caller.Role)
	return c, nil
}

// ClarificationUpdate carries a unit response or a reviewer status change.
type ClarificationUpdate struct {
	Clarification    *string
	ClarificationDoc *string
	Status           *string
}

var reviewerClarificationStatuses = map[string]bool{
	models.ClarificationPending:   true,
	models.ClarificationClarified: true,
	models.ClarificationRejected:  true,
}

// Update applies a response from the owning unit, which marks the clarification
// clarified and appends the response to its history, or a status set by a reviewer.
func (s *ClarificationService) Update(ctx context.Context, caller models.Caller, id int64, in ClarificationUpdate) (*models.Clarification, error) {
	var updated *models.Clarification
	err := s.store.WithinTx(ctx, func(tx Store) error {
		c, err := tx.Clarifications().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return apperrors.NewNotFoundError("clarification", fmt.Sprint(id))
		}
		now := s.now()

		if caller.Role == hierarchy.RoleUnit {
			if err := s.authorizeUnit(ctx, tx, caller, c); err != nil {
				return err
			}
			if err := respond(c, in, now); err != nil {
				return err
			}
		} else {
			if in.Status == nil {
				return apperrors.NewValidationError("clarification_status", "no permitted update fields provided")
			}
			status := strings.ToLower(strings.TrimSpace(*in.Status))
			if !reviewerClarificationStatuses[status] {
				return apperrors.NewValidationError("clarification_status", "must be pending, clarified or rejected")
			}
			c.ClarificationStatus = status
			c.ClarifiedAt = models.TimePtr(now)
		}

		if err := tx.Clarifications().Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordAction(models.AuditActionClarified, caller.Role.String())
	slog.Info("Clarification updated", "clarification_id", id, "status", updated.ClarificationStatus, "role", caller.Role)
	return updated, nil
}

func (s *ClarificationService) authorizeUnit(ctx context.Context, tx Store, caller models.Caller, c *models.Clarification) error {
	app, err := tx.Applications().GetByID(ctx, c.ApplicationType, c.ApplicationID)
	if err != nil {
		return fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return apperrors.NewNotFoundError(string(c.ApplicationType), fmt.Sprint(c.ApplicationID))
	}
	if app.UnitID != caller.UnitID {
		return apperrors.NewForbiddenError("clarification belongs to another unit")
	}
	return nil
}

func respond(c *models.Clarification, in ClarificationUpdate, now time.Time) error {
	if in.Clarification == nil && in.ClarificationDoc == nil {
		return apperrors.NewValidationError("clarification", "no permitted update fields provided")
	}
	if in.Clarification != nil {
		c.Clarification = in.Clarification
	}
	if in.ClarificationDoc != nil {
		c.ClarificationDoc = in.ClarificationDoc
	}
	c.ClarificationStatus = models.ClarificationClarified
	c.ClarifiedAt = models.TimePtr(now)
	c.ClarifiedHistory = append(append([]models.ClarifiedRecord(nil), c.ClarifiedHistory...), models.ClarifiedRecord{
		Clarification:    models.Deref(c.Clarification),
		ClarificationDoc: models.Deref(c.ClarificationDoc),
		ClarifiedAt:      now,
	})
	return nil
}

// Digest counts the pending clarifications and the ones waiting longer than staleAfter.
// It exports both as gauges and returns the stale ones.
func (s *ClarificationService) Digest(ctx context.Context, staleAfter time.Duration) ([]models.Clarification, error) {
	pending, err := s.store.Clarifications().CountPending(ctx)
	if err != nil {
		return nil, err
	}
	stale, err := s.store.Clarifications().PendingOlderThan(ctx, s.now().Add(-staleAfter))
	if err != nil {
		return nil, err
	}
	metrics.SetClarificationBacklog(pending, len(stale))
	return stale, nil
}
