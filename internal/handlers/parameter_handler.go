package handlers

import (
	"net/http"

	"award-review/internal/models"
	"award-review/internal/service"
)

// ParameterRequest represents the request body for creating/updating catalog parameters
type ParameterRequest struct {
	Name           string  `json:"name" validate:"required"`
	Category       string  `json:"category"`
	Subcategory    string  `json:"subcategory"`
	Subsubcategory string  `json:"subsubcategory"`
	AwardType      string  `json:"award_type" validate:"required"`
	PerUnitMark    float64 `json:"per_unit_mark" validate:"gte=0"`
	MaxMarks       float64 `json:"max_marks" validate:"gte=0"`
	Negative       bool    `json:"negative"`
}

func (req ParameterRequest) toModel(id int64) *models.ParameterMaster {
	return &models.ParameterMaster{
		ID:             id,
		Name:           req.Name,
		Category:       req.Category,
		Subcategory:    req.Subcategory,
		Subsubcategory: req.Subsubcategory,
		AwardType:      req.AwardType,
		PerUnitMark:    req.PerUnitMark,
		MaxMarks:       req.MaxMarks,
		Negative:       req.Negative,
	}
}

// ParameterHandler handles parameter catalog requests
type ParameterHandler struct {
	parameters *service.ParameterService
}

// NewParameterHandler creates a new parameter handler
func NewParameterHandler(parameters *service.ParameterService) *ParameterHandler {
	return &ParameterHandler{parameters: parameters}
}

// ListParameters lists the catalog
// @Summary List parameters
// @Tags Parameters
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Success 200 {object} Envelope{data=[]models.ParameterMaster}
// @Router /parameters [get]
func (h *ParameterHandler) ListParameters(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	params, err := h.parameters.List(r.Context(), r.URL.Query().Get("award_type"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Parameters retrieved", params)
}

// GetParameter returns one catalog entry
// @Summary Get parameter
// @Tags Parameters
// @Produce json
// @Security BearerAuth
// @Param id path int true "Parameter ID"
// @Success 200 {object} Envelope{data=models.ParameterMaster}
// @Failure 404 {object} Envelope "Parameter not found"
// @Router /parameters/{id} [get]
func (h *ParameterHandler) GetParameter(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	p, err := h.parameters.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Parameter retrieved", p)
}

// CreateParameter adds a catalog entry
// @Summary Create parameter
// @Description Headquarter only
// @Tags Parameters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param parameter body ParameterRequest true "Parameter"
// @Success 201 {object} Envelope{data=models.ParameterMaster}
// @Failure 400 {object} Envelope "Invalid input"
// @Failure 403 {object} Envelope "Headquarter only"
// @Router /parameters [post]
func (h *ParameterHandler) CreateParameter(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req ParameterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	p := req.toModel(0)
	if err := h.parameters.Create(r.Context(), c, p); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, "Parameter created", p)
}

// UpdateParameter replaces a catalog entry
// @Summary Update parameter
// @Description Headquarter only
// @Tags Parameters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Parameter ID"
// @Param parameter body ParameterRequest true "Parameter"
// @Success 200 {object} Envelope{data=models.ParameterMaster}
// @Failure 403 {object} Envelope "Headquarter only"
// @Failure 404 {object} Envelope "Parameter not found"
// @Router /parameters/{id} [put]
func (h *ParameterHandler) UpdateParameter(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req ParameterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	p := req.toModel(id)
	if err := h.parameters.Update(r.Context(), c, p); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Parameter updated", p)
}

// DeleteParameter removes a catalog entry
// @Summary Delete parameter
// @Description Headquarter only. Scored applications keep their marks.
// @Tags Parameters
// @Produce json
// @Security BearerAuth
// @Param id path int true "Parameter ID"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope "Headquarter only"
// @Failure 404 {object} Envelope "Parameter not found"
// @Router /parameters/{id} [delete]
func (h *ParameterHandler) DeleteParameter(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := h.parameters.Delete(r.Context(), c, id); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Parameter deleted", nil)
}
