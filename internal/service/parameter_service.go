package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
)

// ParameterService manages the parameter master catalog
type ParameterService struct {
	store Store
}

// NewParameterService creates a new parameter service
func NewParameterService(store Store) *ParameterService {
	return &ParameterService{store: store}
}

// List returns the catalog entries of an award type, or every entry when awardType is empty.
func (s *ParameterService) List(ctx context.Context, awardType string) ([]models.ParameterMaster, error) {
	params, err := s.store.Parameters().ListByAwardType(ctx, strings.TrimSpace(awardType))
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters: %w", err)
	}
	if params == nil {
		params = []models.ParameterMaster{}
	}
	return params, nil
}

// Get returns one catalog entry.
func (s *ParameterService) Get(ctx context.Context, id int64) (*models.ParameterMaster, error) {
	p, err := s.store.Parameters().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter: %w", err)
	}
	if p == nil {
		return nil, apperrors.NewNotFoundError("parameter", fmt.Sprint(id))
	}
	return p, nil
}

// Create adds a catalog entry. Only headquarter maintains the catalog.
func (s *ParameterService) Create(ctx context.Context, caller models.Caller, p *models.ParameterMaster) error {
	if err := canManageCatalog(caller); err != nil {
		return err
	}
	if err := validateParameter(p); err != nil {
		return err
	}
	if err := s.store.Parameters().Create(ctx, p); err != nil {
		return fmt.Errorf("failed to create parameter: %w", err)
	}
	slog.Info("Parameter created", "param_id", p.ID, "name", p.Name, "award_type", p.AwardType, "user_id", caller.UserID)
	return nil
}

// Update replaces a catalog entry.
func (s *ParameterService) Update(ctx context.Context, caller models.Caller, p *models.ParameterMaster) error {
	if err := canManageCatalog(caller); err != nil {
		return err
	}
	if err := validateParameter(p); err != nil {
		return err
	}
	if err := s.store.Parameters().Update(ctx, p); err != nil {
		return err
	}
	slog.Info("Parameter updated", "param_id", p.ID, "name", p.Name, "user_id", caller.UserID)
	return nil
}

// Delete removes a catalog entry. Scored applications keep their stored marks.
func (s *ParameterService) Delete(ctx context.Context, caller models.Caller, id int64) error {
	if err := canManageCatalog(caller); err != nil {
		return err
	}
	if err := s.store.Parameters().Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("Parameter deleted", "param_id", id, "user_id", caller.UserID)
	return nil
}

func canManageCatalog(caller models.Caller) error {
	if caller.Role != hierarchy.RoleHeadquarter {
		return apperrors.NewForbiddenError("only headquarter can change the parameter catalog")
	}
	return nil
}

func validateParameter(p *models.ParameterMaster) error {
	p.Name = strings.TrimSpace(p.Name)
	p.AwardType = strings.ToLower(strings.TrimSpace(p.AwardType))
	if p.Name == "" {
		return apperrors.RequiredError("name")
	}
	if p.AwardType == "" {
		return apperrors.RequiredError("award_type")
	}
	if p.PerUnitMark < 0 {
		return apperrors.NewValidationError("per_unit_mark", "must not be negative")
	}
	if p.MaxMarks < 0 {
		return apperrors.NewValidationError("max_marks", "must not be negative")
	}
	return nil
}
