package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"award-review/internal/models"
)

// ClarificationRepository handles Clarification_tab.
type ClarificationRepository struct {
	db DBTX
}

// NewClarificationRepository creates a new clarification repository
func NewClarificationRepository(db DBTX) *ClarificationRepository {
	return &ClarificationRepository{db: db}
}

const clarificationColumns = `
	clarification_id, application_type, application_id, parameter_name,
	clarification_by_id, clarification_by_role, clarification_status, reviewer_comment,
	clarification, clarification_doc, clarified_history, clarified_at,
	clarification_sent_at, updated_at`

func scanClarification(s rowScanner) (*models.Clarification, error) {
	c := &models.Clarification{}
	var history []byte
	err := s.Scan(
		&c.ID,
		&c.ApplicationType,
		&c.ApplicationID,
		&c.ParameterName,
		&c.ClarificationByID,
		&c.ClarificationByRole,
		&c.ClarificationStatus,
		&c.ReviewerComment,
		&c.Clarification,
		&c.ClarificationDoc,
		&history,
		&c.ClarifiedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &c.ClarifiedHistory); err != nil {
			return nil, fmt.Errorf("failed to decode clarified history of %d: %w", c.ID, err)
		}
	}
	return c, nil
}

// Create inserts a pending clarification.
func (r *ClarificationRepository) Create(ctx context.Context, c *models.Clarification) error {
	if c.ClarificationStatus == "" {
		c.ClarificationStatus = models.ClarificationPending
	}
	q := `
		INSERT INTO Clarification_tab (
			application_type, application_id, parameter_name, clarification_by_id,
			clarification_by_role, clarification_status, reviewer_comment
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING clarification_id, clarification_sent_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		c.ApplicationType,
		c.ApplicationID,
		c.ParameterName,
		c.ClarificationByID,
		c.ClarificationByRole,
		c.ClarificationStatus,
		c.ReviewerComment,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create clarification: %w", err)
	}
	return nil
}

// GetByID retrieves a clarification, or nil when it does not exist.
func (r *ClarificationRepository) GetByID(ctx context.Context, id int64) (*models.Clarification, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate retrieves and locks a clarification row.
func (r *ClarificationRepository) GetForUpdate(ctx context.Context, id int64) (*models.Clarification, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *ClarificationRepository) get(ctx context.Context, id int64, suffix string) (*models.Clarification, error) {
	q := `SELECT ` + clarificationColumns + ` FROM Clarification_tab WHERE clarification_id = $1` + suffix
	c, err := scanClarification(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clarification %d: %w", id, err)
	}
	return c, nil
}

// ByIDs batch-loads clarifications keyed by id. Unknown ids are absent from the map.
func (r *ClarificationRepository) ByIDs(ctx context.Context, ids []int64) (map[int64]*models.Clarification, error) {
	out := make(map[int64]*models.Clarification, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT ` + clarificationColumns + ` FROM Clarification_tab WHERE clarification_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load clarifications: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		c, err := scanClarification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clarification: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// Update writes the response and status fields of c.
func (r *ClarificationRepository) Update(ctx context.Context, c *models.Clarification) error {
	history, err := json.Marshal(nonNilHistory(c.ClarifiedHistory))
	if err != nil {
		return fmt.Errorf("failed to encode clarified history: %w", err)
	}
	q := `
		UPDATE Clarification_tab SET
			clarification_status = $1,
			clarification = $2,
			clarification_doc = $3,
			clarified_history = $4,
			clarified_at = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE clarification_id = $6
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, q,
		c.ClarificationStatus,
		c.Clarification,
		c.ClarificationDoc,
		history,
		c.ClarifiedAt,
		c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update clarification %d: %w", c.ID, err)
	}
	return nil
}

// PendingOlderThan lists pending clarifications raised before cutoff, oldest first.
func (r *ClarificationRepository) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Clarification, error) {
	q := `SELECT ` + clarificationColumns + `
		FROM Clarification_tab
		WHERE clarification_status = 'pending' AND clarification_sent_at < $1
		ORDER BY clarification_sent_at`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale clarifications: %w", err)
	}
	defer closeRows(rows)

	clarifications := []models.Clarification{}
	for rows.Next() {
		c, err := scanClarification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clarification: %w", err)
		}
		clarifications = append(clarifications, *c)
	}
	return clarifications, rows.Err()
}

// CountPending returns the number of clarifications awaiting a unit response.
func (r *ClarificationRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM Clarification_tab WHERE clarification_status = 'pending'`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending clarifications: %w", err)
	}
	return n, nil
}

func nonNilHistory(h []models.ClarifiedRecord) []models.ClarifiedRecord {
	if h == nil {
		return []models.ClarifiedRecord{}
	}
	return h
}
