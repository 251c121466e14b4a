package handlers

import (
	"net/http"

	"award-review/internal/models"
	"award-review/internal/query"
	"award-review/internal/service"
)

// RaiseClarificationRequest asks the submitting unit to clarify one parameter
type RaiseClarificationRequest struct {
	Type            string `json:"type" validate:"required,app_type"`
	ApplicationID   int64  `json:"application_id" validate:"required,gt=0"`
	ParameterName   string `json:"parameter_name" validate:"required"`
	ReviewerComment string `json:"reviewer_comment"`
}

// UpdateClarificationRequest carries a unit response or a reviewer status
type UpdateClarificationRequest struct {
	Clarification       *string `json:"clarification,omitempty"`
	ClarificationDoc    *string `json:"clarification_doc,omitempty"`
	ClarificationStatus *string `json:"clarification_status,omitempty"`
}

// ClarificationHandler handles clarification requests
type ClarificationHandler struct {
	clarifications *service.ClarificationService
	queries        *service.QueryService
	limits         query.Limits
}

// NewClarificationHandler creates a new clarification handler
func NewClarificationHandler(clarifications *service.ClarificationService, queries *service.QueryService, limits query.Limits) *ClarificationHandler {
	return &ClarificationHandler{clarifications: clarifications, queries: queries, limits: limits}
}

// RaiseClarification creates a pending clarification on a parameter
// @Summary Raise clarification
// @Tags Clarifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clarification body RaiseClarificationRequest true "Clarification"
// @Success 201 {object} Envelope{data=models.Clarification}
// @Failure 403 {object} Envelope "Units cannot raise clarifications"
// @Failure 404 {object} Envelope "Application or parameter not found"
// @Router /clarifications [post]
func (h *ClarificationHandler) RaiseClarification(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req RaiseClarificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	cl, err := h.clarifications.Raise(r.Context(), c, service.RaiseClarification{
		Type:            models.ApplicationType(req.Type),
		ApplicationID:   req.ApplicationID,
		ParameterName:   req.ParameterName,
		ReviewerComment: req.ReviewerComment,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, "Clarification raised", cl)
}

// UpdateClarification records a unit response or a reviewer decision
// @Summary Update clarification
// @Description Units answer with text and an optional document; reviewers set the status
// @Tags Clarifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Clarification ID"
// @Param update body UpdateClarificationRequest true "Update"
// @Success 200 {object} Envelope{data=models.Clarification}
// @Failure 400 {object} Envelope "Invalid input"
// @Failure 403 {object} Envelope "Application belongs to another unit"
// @Failure 404 {object} Envelope "Clarification not found"
// @Router /clarifications/{id} [patch]
func (h *ClarificationHandler) UpdateClarification(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req UpdateClarificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	cl, err := h.clarifications.Update(r.Context(), c, id, service.ClarificationUpdate{
		Clarification:    req.Clarification,
		ClarificationDoc: req.ClarificationDoc,
		Status:           req.ClarificationStatus,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Clarification updated", cl)
}

// ListUnitClarifications lists the caller unit's open clarifications
// @Summary Unit clarification inbox
// @Tags Clarifications
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Param search query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} Envelope{data=[]query.ApplicationView}
// @Failure 403 {object} Envelope "Units only"
// @Router /clarifications/unit [get]
func (h *ClarificationHandler) ListUnitClarifications(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	f, err := query.ParseFilter(r.URL.Query(), h.limits)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	page, err := h.queries.ClarificationInbox(r.Context(), c, f)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithPage(w, "Clarifications retrieved", page)
}
