package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"award-review/internal/apperrors"
	"award-review/internal/models"
	"award-review/internal/query"
)

// ApplicationRepository reads and writes citations and appreciations.
type ApplicationRepository struct {
	db DBTX
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func selectColumns(t applicationTable) string {
	return fmt.Sprintf(`
		%s, unit_id, date_init, %s, status_flag,
		last_approved_by_role, last_approved_at, last_rejected_by_role, last_rejected_at,
		last_shortlisted_approved_role,
		is_mo_approved, mo_approved_at, is_ol_approved, ol_approved_at,
		is_hr_review, is_dv_review, is_mp_review,
		is_withdraw_requested, withdraw_status, withdraw_requested_by, withdraw_requested_by_user_id,
		withdraw_requested_at, withdraw_approved_by_role, withdraw_approved_by_user_id, withdraw_approved_at,
		remarks, version, updated_at`, t.IDCol, t.FDSCol)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(s rowScanner, appType models.ApplicationType) (*models.Application, error) {
	app := &models.Application{Type: appType}
	var fds, remarks []byte
	err := s.Scan(
		&app.ID,
		&app.UnitID,
		&app.DateInit,
		&fds,
		&app.Status,
		&app.LastApprovedByRole,
		&app.LastApprovedAt,
		&app.LastRejectedByRole,
		&app.LastRejectedAt,
		&app.LastShortlistedApprovedRole,
		&app.IsMOApproved,
		&app.MOApprovedAt,
		&app.IsOLApproved,
		&app.OLApprovedAt,
		&app.IsHRReview,
		&app.IsDVReview,
		&app.IsMPReview,
		&app.IsWithdrawRequested,
		&app.WithdrawStatus,
		&app.WithdrawRequestedBy,
		&app.WithdrawRequestedByUserID,
		&app.WithdrawRequestedAt,
		&app.WithdrawApprovedByRole,
		&app.WithdrawApprovedByUserID,
		&app.WithdrawApprovedAt,
		&remarks,
		&app.Version,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fds, &app.FDS); err != nil {
		return nil, fmt.Errorf("failed to decode fds of %s %d: %w", appType, app.ID, err)
	}
	if len(remarks) > 0 {
		if err := json.Unmarshal(remarks, &app.Remarks); err != nil {
			return nil, fmt.Errorf("failed to decode remarks of %s %d: %w", appType, app.ID, err)
		}
	}
	return app, nil
}

// GetByID retrieves an application, or nil when it does not exist.
func (r *ApplicationRepository) GetByID(ctx context.Context, appType models.ApplicationType, id int64) (*models.Application, error) {
	return r.get(ctx, appType, id, false)
}

// GetForUpdate retrieves an application and locks its row until the transaction ends.
func (r *ApplicationRepository) GetForUpdate(ctx context.Context, appType models.ApplicationType, id int64) (*models.Application, error) {
	return r.get(ctx, appType, id, true)
}

func (r *ApplicationRepository) get(ctx context.Context, appType models.ApplicationType, id int64, lock bool) (*models.Application, error) {
	t, err := tableFor(appType)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns(t), t.Name, t.IDCol)
	if lock {
		q += " FOR UPDATE"
	}

	app, err := scanApplication(r.db.QueryRowContext(ctx, q, id), appType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", appType, id, err)
	}
	return app, nil
}

// Create inserts app and fills its id, date_init, version and updated_at.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	t, err := tableFor(app.Type)
	if err != nil {
		return err
	}
	fds, err := json.Marshal(app.FDS)
	if err != nil {
		return fmt.Errorf("failed to encode fds: %w", err)
	}
	remarks, err := json.Marshal(nonNilRemarks(app.Remarks))
	if err != nil {
		return fmt.Errorf("failed to encode remarks: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (unit_id, %s, status_flag, is_hr_review, is_dv_review, is_mp_review, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, date_init, version, updated_at
	`, t.Name, t.FDSCol, t.IDCol)

	err = r.db.QueryRowContext(ctx, q,
		app.UnitID,
		fds,
		app.Status,
		app.IsHRReview,
		app.IsDVReview,
		app.IsMPReview,
		remarks,
	).Scan(&app.ID, &app.DateInit, &app.Version, &app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", app.Type, err)
	}
	return nil
}

// Update writes every mutable column of app when the stored version still equals
// app.Version, then bumps the version. A stale version is a conflict; a missing
// row is not found.
func (r *ApplicationRepository) Update(ctx context.Context, app *models.Application) error {
	t, err := tableFor(app.Type)
	if err != nil {
		return err
	}
	fds, err := json.Marshal(app.FDS)
	if err != nil {
		return fmt.Errorf("failed to encode fds: %w", err)
	}
	remarks, err := json.Marshal(nonNilRemarks(app.Remarks))
	if err != nil {
		return fmt.Errorf("failed to encode remarks: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE %s SET
			%s = $1,
			status_flag = $2,
			last_approved_by_role = $3,
			last_approved_at = $4,
			last_rejected_by_role = $5,
			last_rejected_at = $6,
			last_shortlisted_approved_role = $7,
			is_mo_approved = $8,
			mo_approved_at = $9,
			is_ol_approved = $10,
			ol_approved_at = $11,
			is_hr_review = $12,
			is_dv_review = $13,
			is_mp_review = $14,
			is_withdraw_requested = $15,
			withdraw_status = $16,
			withdraw_requested_by = $17,
			withdraw_requested_by_user_id = $18,
			withdraw_requested_at = $19,
			withdraw_approved_by_role = $20,
			withdraw_approved_by_user_id = $21,
			withdraw_approved_at = $22,
			remarks = $23,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE %s = $24 AND version = $25
		RETURNING version, updated_at
	`, t.Name, t.FDSCol, t.IDCol)

	err = r.db.QueryRowContext(ctx, q,
		fds,
		app.Status,
		app.LastApprovedByRole,
		app.LastApprovedAt,
		app.LastRejectedByRole,
		app.LastRejectedAt,
		app.LastShortlistedApprovedRole,
		app.IsMOApproved,
		app.MOApprovedAt,
		app.IsOLApproved,
		app.OLApprovedAt,
		app.IsHRReview,
		app.IsDVReview,
		app.IsMPReview,
		app.IsWithdrawRequested,
		app.WithdrawStatus,
		app.WithdrawRequestedBy,
		app.WithdrawRequestedByUserID,
		app.WithdrawRequestedAt,
		app.WithdrawApprovedByRole,
		app.WithdrawApprovedByUserID,
		app.WithdrawApprovedAt,
		remarks,
		app.ID,
		app.Version,
	).Scan(&app.Version, &app.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.GetByID(ctx, app.Type, app.ID)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			return apperrors.NewNotFoundError(string(app.Type), strconv.FormatInt(app.ID, 10))
		}
		return apperrors.NewConflictError(string(app.Type), app.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", app.Type, app.ID, err)
	}
	return nil
}

// List returns the applications of one type matching p, newest first.
func (r *ApplicationRepository) List(ctx context.Context, appType models.ApplicationType, p query.Predicate) ([]*models.Application, error) {
	t, err := tableFor(appType)
	if err != nil {
		return nil, err
	}
	where := p.Where
	if where == "" {
		where = "TRUE"
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY date_init DESC`, selectColumns(t), t.Name, where)

	rows, err := r.db.QueryContext(ctx, q, bindArgs(p.Args)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", appType, err)
	}
	defer closeRows(rows)

	apps := []*models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows, appType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", appType, err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// ListAll runs p against both application tables and concatenates citations
// then appreciations.
func (r *ApplicationRepository) ListAll(ctx context.Context, p query.Predicate) ([]*models.Application, error) {
	citations, err := r.List(ctx, models.TypeCitation, p)
	if err != nil {
		return nil, err
	}
	appreciations, err := r.List(ctx, models.TypeAppreciation, p)
	if err != nil {
		return nil, err
	}
	return append(citations, appreciations...), nil
}

func nonNilRemarks(r []models.Remark) []models.Remark {
	if r == nil {
		return []models.Remark{}
	}
	return r
}
