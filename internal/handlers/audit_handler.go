package handlers

import (
	"net/http"

	"award-review/internal/service"
)

// AuditHandler handles audit log requests
type AuditHandler struct {
	applications *service.ApplicationService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(applications *service.ApplicationService) *AuditHandler {
	return &AuditHandler{applications: applications}
}

// ListApplicationAudit lists the workflow actions recorded for one application
// @Summary Application audit trail
// @Description Every status change, signature, comment, marks approval and clarification, oldest first
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Param id path int true "Application ID"
// @Success 200 {object} Envelope{data=[]models.AuditLog}
// @Failure 401 {object} Envelope "Unauthorized"
// @Failure 404 {object} Envelope "Application not found"
// @Router /applications/{type}/{id}/audit [get]
func (h *AuditHandler) ListApplicationAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	t, id, err := typeAndID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	logs, err := h.applications.AuditTrail(r.Context(), t, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Audit trail retrieved", logs)
}
