package handlers

import (
	"encoding/json"
	"net/http"

	"award-review/internal/service"
)

// DraftRequest holds the unsubmitted document as the client left it
type DraftRequest struct {
	DraftFDS json.RawMessage `json:"draft_fds" validate:"required"`
}

// DraftHandler handles application draft requests
type DraftHandler struct {
	drafts *service.DraftService
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(drafts *service.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// SaveDraft creates or replaces the caller's draft
// @Summary Save draft
// @Tags Drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Param draft body DraftRequest true "Draft"
// @Success 200 {object} Envelope{data=models.Draft}
// @Failure 400 {object} Envelope "Draft is not a JSON document"
// @Router /drafts/{type} [put]
func (h *DraftHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	t, err := pathType(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req DraftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	d, err := h.drafts.Save(r.Context(), c, t, req.DraftFDS)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Draft saved", d)
}

// GetDraft returns the caller's draft
// @Summary Get draft
// @Tags Drafts
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Success 200 {object} Envelope{data=models.Draft}
// @Failure 404 {object} Envelope "No draft"
// @Router /drafts/{type} [get]
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	t, err := pathType(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	d, err := h.drafts.Get(r.Context(), c, t)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Draft retrieved", d)
}

// DeleteDraft discards the caller's draft
// @Summary Delete draft
// @Tags Drafts
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope "No draft"
// @Router /drafts/{type} [delete]
func (h *DraftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	t, err := pathType(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.drafts.Delete(r.Context(), c, t); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Draft deleted", nil)
}
