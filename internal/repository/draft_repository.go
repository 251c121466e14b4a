package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"award-review/internal/models"
)

// DraftRepository stores one unsubmitted document per (user, type).
type DraftRepository struct {
	db DBTX
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db DBTX) *DraftRepository {
	return &DraftRepository{db: db}
}

// Upsert saves d, replacing any existing draft of the same user and type.
func (r *DraftRepository) Upsert(ctx context.Context, d *models.Draft) error {
	q := `
		INSERT INTO Application_drafts (user_id, type, draft_fds)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, type) DO UPDATE SET
			draft_fds = EXCLUDED.draft_fds,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q, d.UserID, d.Type, []byte(d.DraftFDS)).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get retrieves a draft, or nil when none exists.
func (r *DraftRepository) Get(ctx context.Context, userID int64, t models.ApplicationType) (*models.Draft, error) {
	d := &models.Draft{}
	var fds []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, draft_fds, created_at, updated_at
		FROM Application_drafts
		WHERE user_id = $1 AND type = $2
	`, userID, t).Scan(&d.ID, &d.UserID, &d.Type, &fds, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	d.DraftFDS = fds
	return d, nil
}

// Delete removes a draft. It reports whether one existed.
func (r *DraftRepository) Delete(ctx context.Context, userID int64, t models.ApplicationType) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Application_drafts WHERE user_id = $1 AND type = $2`, userID, t)
	if err != nil {
		return false, fmt.Errorf("failed to delete draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete draft: %w", err)
	}
	return n > 0, nil
}

// PurgeOlderThan deletes drafts not updated since cutoff and returns how many went.
func (r *DraftRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Application_drafts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge drafts: %w", err)
	}
	return res.RowsAffected()
}
