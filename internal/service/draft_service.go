package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

// DraftService keeps one unsubmitted document per user and application type
type DraftService struct {
	store Store
	now   func() time.Time
}

// NewDraftService creates a new draft service
func NewDraftService(store Store) *DraftService {
	return &DraftService{store: store, now: time.Now}
}

// Save creates or replaces the caller's draft of type t.
func (s *DraftService) Save(ctx context.Context, caller models.Caller, t models.ApplicationType, doc json.RawMessage) (*models.Draft, error) {
	if len(doc) == 0 || !json.Valid(doc) {
		return nil, apperrors.NewValidationError("draft_fds", "must be a JSON document")
	}
	d := &models.Draft{UserID: caller.UserID, Type: t, DraftFDS: doc}
	if err := s.store.Drafts().Upsert(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return d, nil
}

// Get returns the caller's draft of type t.
func (s *DraftService) Get(ctx context.Context, caller models.Caller, t models.ApplicationType) (*models.Draft, error) {
	d, err := s.store.Drafts().Get(ctx, caller.UserID, t)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if d == nil {
		return nil, apperrors.NewNotFoundError("draft", string(t))
	}
	return d, nil
}

// Delete removes the caller's draft of type t.
func (s *DraftService) Delete(ctx context.Context, caller models.Caller, t models.ApplicationType) error {
	deleted, err := s.store.Drafts().Delete(ctx, caller.UserID, t)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if !deleted {
		return apperrors.NewNotFoundError("draft", string(t))
	}
	return nil
}

// PurgeStale deletes drafts untouched for longer than retention.
func (s *DraftService) PurgeStale(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.store.Drafts().PurgeOlderThan(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("Purged stale drafts", "count", n, "retention", retention.String())
	}
	return n, nil
}
