package repository

import (
	"context"
	"fmt"

	"award-review/internal/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (user_id, role, action, application_type, application_id, from_status, to_status, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.UserID,
		log.Role,
		log.Action,
		log.ApplicationType,
		log.ApplicationID,
		log.FromStatus,
		log.ToStatus,
		log.Details,
	).Scan(&log.ID, &log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

// GetByApplication retrieves the trail of one application, oldest first
func (r *AuditRepository) GetByApplication(ctx context.Context, t models.ApplicationType, id int64) ([]models.AuditLog, error) {
	query := `
		SELECT id, COALESCE(user_id, 0), COALESCE(role, ''), action, COALESCE(application_type, ''),
		       COALESCE(application_id, 0), COALESCE(from_status, ''), COALESCE(to_status, ''),
		       COALESCE(details, ''), created_at
		FROM audit_logs
		WHERE application_type = $1 AND application_id = $2
		ORDER BY created_at, id
	`

	return r.list(ctx, query, t, id)
}

// GetAll retrieves all audit logs with pagination, newest first
func (r *AuditRepository) GetAll(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	query := `
		SELECT id, COALESCE(user_id, 0), COALESCE(role, ''), action, COALESCE(application_type, ''),
		       COALESCE(application_id, 0), COALESCE(from_status, ''), COALESCE(to_status, ''),
		       COALESCE(details, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	return r.list(ctx, query, limit, offset)
}

func (r *AuditRepository) list(ctx context.Context, query string, args ...any) ([]models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	defer closeRows(rows)

	logs := []models.AuditLog{}
	for rows.Next() {
		var log models.AuditLog
		if err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Role,
			&log.Action,
			&log.ApplicationType,
			&log.ApplicationID,
			&log.FromStatus,
			&log.ToStatus,
			&log.Details,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
