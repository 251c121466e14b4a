package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

// ParameterRepository handles the Parameter_Master catalog.
type ParameterRepository struct {
	db DBTX
}

// NewParameterRepository creates a new parameter catalog repository
func NewParameterRepository(db DBTX) *ParameterRepository {
	return &ParameterRepository{db: db}
}

const parameterColumns = `
	param_id, name, COALESCE(category, ''), COALESCE(subcategory, ''), COALESCE(subsubcategory, ''),
	award_type, per_unit_mark, max_marks, negative, created_at, updated_at`

func scanParameter(s rowScanner) (*models.ParameterMaster, error) {
	p := &models.ParameterMaster{}
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Subcategory,
		&p.Subsubcategory,
		&p.AwardType,
		&p.PerUnitMark,
		&p.MaxMarks,
		&p.Negative,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// ListByAwardType returns the catalog for an award type in insertion order.
// An empty award type returns the whole catalog.
func (r *ParameterRepository) ListByAwardType(ctx context.Context, awardType string) ([]models.ParameterMaster, error) {
	q := `SELECT ` + parameterColumns + ` FROM Parameter_Master`
	var args []any
	if awardType != "" {
		q += ` WHERE LOWER(award_type) = LOWER($1)`
		args = append(args, awardType)
	}
	q += ` ORDER BY param_id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters: %w", err)
	}
	defer closeRows(rows)

	params := []models.ParameterMaster{}
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parameter: %w", err)
		}
		params = append(params, *p)
	}
	return params, rows.Err()
}

// GetByID retrieves a catalog entry, or nil when it does not exist.
func (r *ParameterRepository) GetByID(ctx context.Context, id int64) (*models.ParameterMaster, error) {
	p, err := scanParameter(r.db.QueryRowContext(ctx,
		`SELECT `+parameterColumns+` FROM Parameter_Master WHERE param_id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter %d: %w", id, err)
	}
	return p, nil
}

// Create inserts a catalog entry.
func (r *ParameterRepository) Create(ctx context.Context, p *models.ParameterMaster) error {
	q := `
		INSERT INTO Parameter_Master (name, category, subcategory, subsubcategory, award_type, per_unit_mark, max_marks, negative)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING param_id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		p.Name, p.Category, p.Subcategory, p.Subsubcategory, p.AwardType, p.PerUnitMark, p.MaxMarks, p.Negative,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create parameter: %w", err)
	}
	return nil
}

// Update overwrites a catalog entry.
func (r *ParameterRepository) Update(ctx context.Context, p *models.ParameterMaster) error {
	q := `
		UPDATE Parameter_Master SET
			name = $1, category = $2, subcategory = $3, subsubcategory = $4, award_type = $5,
			per_unit_mark = $6, max_marks = $7, negative = $8, updated_at = CURRENT_TIMESTAMP
		WHERE param_id = $9
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		p.Name, p.Category, p.Subcategory, p.Subsubcategory, p.AwardType, p.PerUnitMark, p.MaxMarks, p.Negative, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError("parameter", strconv.FormatInt(p.ID, 10))
	}
	if err != nil {
		return fmt.Errorf("failed to update parameter %d: %w", p.ID, err)
	}
	return nil
}

// Delete removes a catalog entry.
func (r *ParameterRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM Parameter_Master WHERE param_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete parameter %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("parameter", strconv.FormatInt(id, 10))
	}
	return nil
}

// NegativeFlags looks up the negative flag of each catalog name, keyed by the
// trimmed lowercase name. names must already be normalized.
func (r *ParameterRepository) NegativeFlags(ctx context.Context, names []string) (map[string]bool, error) {
	flags := make(map[string]bool, len(names))
	if len(names) == 0 {
		return flags, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT LOWER(TRIM(name)), negative FROM Parameter_Master WHERE LOWER(TRIM(name)) = ANY($1)`,
		pq.Array(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load negative flags: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var name string
		var negative bool
		if err := rows.Scan(&name, &negative); err != nil {
			return nil, fmt.Errorf("failed to scan negative flag: %w", err)
		}
		flags[name] = flags[name] || negative
	}
	return flags, rows.Err()
}
