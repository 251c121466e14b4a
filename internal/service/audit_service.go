package service

import (
	"context"
	"fmt"
	"log/slog"

	"award-review/internal/models"
)

// AuditService handles the application audit trail
type AuditService struct {
	store Store
}

// NewAuditService creates a new audit service
func NewAuditService(store Store) *AuditService {
	return &AuditService{store: store}
}

// Log creates an audit log entry, ignoring errors.
// Use it outside transactions where a lost audit row must not fail the operation.
func (s *AuditService) Log(ctx context.Context, entry models.AuditLog) {
	if err := s.store.Audit().Create(ctx, &entry); err != nil {
		slog.Warn("Failed to write audit log", "action", entry.Action, "application_id", entry.ApplicationID, "error", err)
	}
}

// Record writes entry through audit and returns any error. Inside a transaction the
// audit row commits or rolls back together with the change it describes.
func (s *AuditService) Record(ctx context.Context, audit AuditStore, entry models.AuditLog) error {
	if err := audit.Create(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// History returns the audit trail of one application, oldest first.
func (s *AuditService) History(ctx context.Context, t models.ApplicationType, id int64) ([]models.AuditLog, error) {
	logs, err := s.store.Audit().GetByApplication(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

func auditEntry(caller models.Caller, action string, app *models.Application, from models.Status, details string) models.AuditLog {
	return models.AuditLog{
		UserID:          caller.UserID,
		Role:            caller.Role.String(),
		Action:          action,
		ApplicationType: app.Type,
		ApplicationID:   app.ID,
		FromStatus:      string(from),
		ToStatus:        string(app.Status),
		Details:         details,
	}
}
