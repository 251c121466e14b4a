package handlers

import (
	"context"
	"net/http"

	"award-review/internal/models"
	"award-review/internal/query"
	"award-review/internal/service"
	"award-review/internal/workflow"
)

// SubmissionRequest is the body for creating or editing an application
type SubmissionRequest struct {
	FDS models.FDS `json:"fds"`
	// Status is draft or in_review. Omitted means in_review on create and unchanged on edit.
	Status models.Status `json:"status_flag,omitempty" validate:"omitempty,oneof=draft in_review"`
}

// StatusRequest is the body of the state machine entry point
type StatusRequest struct {
	Status            string                 `json:"status"`
	Member            *models.AcceptedMember `json:"member,omitempty"`
	WithdrawRequested bool                   `json:"withdrawRequested"`
	WithdrawStatus    string                 `json:"withdraw_status,omitempty" validate:"omitempty,oneof=approved rejected"`
}

// BulkStatusRequest updates several applications of one type
type BulkStatusRequest struct {
	Type   string  `json:"type" validate:"required,app_type"`
	IDs    []int64 `json:"ids" validate:"min=1,dive,gt=0"`
	Status string  `json:"status,omitempty" validate:"omitempty,oneof=approved rejected shortlisted_approved"`
}

// MarksRequest approves marks, grace marks, priority and remark in one call
type MarksRequest struct {
	Type          string                    `json:"type" validate:"required,app_type"`
	ApplicationID int64                     `json:"application_id" validate:"required,gt=0"`
	Parameters    []workflow.ParameterMarks `json:"parameters" validate:"dive"`
	GraceMarks    *float64                  `json:"applicationGraceMarks,omitempty" validate:"omitempty,gte=0"`
	Priority      *int                      `json:"applicationPriority,omitempty" validate:"omitempty,gt=0"`
	Remark        *string                   `json:"remark,omitempty"`
}

// SignatureRequest adds one member signature under the caller's role
type SignatureRequest struct {
	Type           string `json:"type" validate:"required,app_type"`
	ApplicationID  int64  `json:"application_id" validate:"required,gt=0"`
	MemberID       int64  `json:"id" validate:"required"`
	MemberOrder    int    `json:"member_order"`
	MemberType     string `json:"member_type" validate:"required"`
	Name           string `json:"name" validate:"required"`
	AddedSignature string `json:"added_signature" validate:"required"`
}

// CommentRequest adds the caller's comment to the application and/or its parameters
type CommentRequest struct {
	Type          string                      `json:"type" validate:"required,app_type"`
	ApplicationID int64                       `json:"application_id" validate:"required,gt=0"`
	Comment       *string                     `json:"comment,omitempty"`
	Parameters    []workflow.ParameterComment `json:"parameters,omitempty" validate:"dive"`
}

// ApplicationHandler serves application submission, workflow and listing requests
type ApplicationHandler struct {
	submissions  *service.SubmissionService
	applications *service.ApplicationService
	queries      *service.QueryService
	limits       query.Limits
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(
	submissions *service.SubmissionService,
	applications *service.ApplicationService,
	queries *service.QueryService,
	limits query.Limits,
) *ApplicationHandler {
	return &ApplicationHandler{
		submissions:  submissions,
		applications: applications,
		queries:      queries,
		limits:       limits,
	}
}

// CreateApplication submits a new citation or appreciation
// @Summary Create application
// @Description Scores the submitted parameters against the catalog and stores the application (unit only)
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Param application body SubmissionRequest true "Application document"
// @Success 201 {object} Envelope{data=models.Application}
// @Failure 400 {object} Envelope "Invalid input, incomplete profile or unknown parameter"
// @Failure 401 {object} Envelope "Unauthorized"
// @Failure 403 {object} Envelope "Only units can submit"
// @Router /applications/{type} [post]
func (h *ApplicationHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	t, err := pathType(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req SubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	app, err := h.submissions.Create(r.Context(), c, t, service.Submission{FDS: req.FDS, Status: req.Status})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, "Application created", app)
}

// UpdateApplication edits an application owned by the caller's unit
// @Summary Update application
// @Description Rescores the document and keeps reviewer fields of parameters that are still present
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Param id path int true "Application ID"
// @Param application body SubmissionRequest true "Application document"
// @Success 200 {object} Envelope{data=models.Application}
// @Failure 400 {object} Envelope "Invalid input or application no longer editable"
// @Failure 403 {object} Envelope "Application belongs to another unit"
// @Failure 404 {object} Envelope "Application not found"
// @Failure 409 {object} Envelope "Application modified concurrently"
// @Router /applications/{type}/{id} [put]
func (h *ApplicationHandler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	t, id, err := typeAndID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req SubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	app, err := h.submissions.Update(r.Context(), c, t, id, service.Submission{FDS: req.FDS, Status: req.Status})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Application updated", app)
}

// GetApplication returns one application shaped for the caller
// @Summary Get application
// @Description Returns the application with unit name, marks and the clarification details visible to the caller
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Param id path int true "Application ID"
// @Success 200 {object} Envelope{data=query.ApplicationView}
// @Failure 403 {object} Envelope "Application belongs to another unit"
// @Failure 404 {object} Envelope "Application not found"
// @Router /applications/{type}/{id} [get]
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	t, id, err := typeAndID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	view, err := h.queries.Application(r.Context(), c, t, id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Application retrieved", view)
}

// UpdateStatus is the workflow entry point: approvals, rejections, member signatures
// and the withdrawal sub-workflow
// @Summary Update application status
// @Description Dispatches to withdraw request, withdraw decision, member quorum or a plain status change
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "citation or appreciation"
// @Param id path int true "Application ID"
// @Param update body StatusRequest true "Status update"
// @Success 200 {object} Envelope{data=models.Application}
// @Failure 400 {object} Envelope "Invalid status or no pending withdraw request"
// @Failure 404 {object} Envelope "Application not found"
// @Failure 409 {object} Envelope "Application modified concurrently"
// @Router /applications/{type}/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	t, id, err := typeAndID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	app, err := h.applications.UpdateStatus(r.Context(), c, service.StatusUpdate{
		Type:              t,
		ID:                id,
		Status:            req.Status,
		Member:            req.Member,
		WithdrawRequested: req.WithdrawRequested,
		WithdrawStatus:    req.WithdrawStatus,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Application status updated", app)
}

// BulkUpdateStatus applies one status to several applications
// @Summary Bulk status update
// @Description Each id is updated in its own transaction; the result lists the outcome per id
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param update body BulkStatusRequest true "Bulk update"
// @Success 200 {object} Envelope{data=[]service.BulkResult}
// @Failure 400 {object} Envelope "Invalid input"
// @Router /applications/status/bulk [post]
func (h *ApplicationHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req BulkStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	results, err := h.applications.BulkUpdateStatus(r.Context(), c, service.BulkStatusUpdate{
		Type:   models.ApplicationType(req.Type),
		IDs:    req.IDs,
		Status: req.Status,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Bulk status update processed", results)
}

// ApproveMarks records reviewer marks, grace marks, priority and remark
// @Summary Approve application marks
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param marks body MarksRequest true "Marks approval"
// @Success 200 {object} Envelope{data=models.Application}
// @Failure 400 {object} Envelope "Invalid input or unknown parameter"
// @Failure 404 {object} Envelope "Application not found"
// @Router /applications/marks [post]
func (h *ApplicationHandler) ApproveMarks(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req MarksRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	app, err := h.applications.ApproveMarks(r.Context(), c, models.ApplicationType(req.Type), req.ApplicationID, workflow.MarksApproval{
		Parameters: req.Parameters,
		GraceMarks: req.GraceMarks,
		Priority:   req.Priority,
		Remark:     req.Remark,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Application marks approved", app)
}

// AddSignature adds a member signature under the caller's role
// @Summary Add application signature
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param signature body SignatureRequest true "Signature"
// @Success 200 {object} Envelope{data=models.Application}
// @Failure 400 {object} Envelope "Invalid input or member already signed"
// @Failure 404 {object} Envelope "Application not found"
// @Router /applications/signatures [post]
func (h *ApplicationHandler) AddSignature(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req SignatureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	app, err := h.applications.AddSignature(r.Context(), c, models.ApplicationType(req.Type), req.ApplicationID, workflow.SignatureInput{
		ID:             req.MemberID,
		MemberOrder:    req.MemberOrder,
		MemberType:     req.MemberType,
		Name:           req.Name,
		AddedSignature: req.AddedSignature,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Signature added", app)
}

// AddComment upserts the caller's comments
// @Summary Add application comment
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param comment body CommentRequest true "Comments"
// @Success 200 {object} Envelope{data=models.Application}
// @Failure 400 {object} Envelope "Nothing to add or unknown parameter"
// @Failure 404 {object} Envelope "Application not found"
// @Router /applications/comments [post]
func (h *ApplicationHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	app, err := h.applications.AddComment(r.Context(), c, models.ApplicationType(req.Type), req.ApplicationID, workflow.CommentInput{
		Comment:           req.Comment,
		ParameterComments: req.Parameters,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, "Comment added", app)
}

type listFunc func(ctx context.Context, c models.Caller, f query.Filter) (service.ApplicationPage, error)

// list parses the shared filter and writes one page of views.
func (h *ApplicationHandler) list(w http.ResponseWriter, r *http.Request, message string, fn listFunc) {
	c, ok := caller(w, r)
	if !ok {
		return
	}
	f, err := query.ParseFilter(r.URL.Query(), h.limits)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	page, err := fn(r.Context(), c, f)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithPage(w, message, page)
}

// ListUnitApplications lists the caller unit's own applications
// @Summary Unit applications
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Param search query string false "Matches id or cycle period, ignoring case, spaces and hyphens"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param isGetNotClarifications query bool false "Only applications without pending clarifications"
// @Success 200 {object} Envelope{data=[]query.ApplicationView}
// @Router /applications/unit [get]
func (h *ApplicationHandler) ListUnitApplications(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Unit applications retrieved", h.queries.UnitApplications)
}

// ListSubordinates lists the review, shortlist or withdrawal queue
// @Summary Subordinate applications
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Param search query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param isShortlisted query bool false "Shortlist queue ordered by priority"
// @Param isGetWithdrawRequests query bool false "Withdrawal queue"
// @Param isGetNotClarifications query bool false "Only applications without pending clarifications"
// @Success 200 {object} Envelope{data=[]query.ApplicationView}
// @Failure 400 {object} Envelope "Role has no subordinates"
// @Router /applications/subordinates [get]
func (h *ApplicationHandler) ListSubordinates(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Subordinate applications retrieved", h.queries.Subordinates)
}

// ListHQ lists the applications approved at command
// @Summary Headquarter applications
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Param search query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} Envelope{data=[]query.ApplicationView}
// @Failure 403 {object} Envelope "Headquarter and cw2 only"
// @Router /applications/hq [get]
func (h *ApplicationHandler) ListHQ(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Headquarter applications retrieved", h.queries.HQ)
}

// ListScoreboard ranks command-approved applications by priority
// @Summary Scoreboard
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Param search query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} Envelope{data=[]query.ApplicationView}
// @Failure 403 {object} Envelope "Command and headquarter only"
// @Router /applications/scoreboard [get]
func (h *ApplicationHandler) ListScoreboard(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Scoreboard retrieved", h.queries.Scoreboard)
}

// ListHistory lists what the caller's level already acted on
// @Summary Application history
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Param search query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} Envelope{data=[]query.ApplicationView}
// @Failure 400 {object} Envelope "Role has no history"
// @Router /applications/history [get]
func (h *ApplicationHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Application history retrieved", h.queries.History)
}

// ListAll lists every application visible to the caller
// @Summary All applications
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Param award_type query string false "Award type"
// @Param search query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} Envelope{data=[]query.ApplicationView}
// @Failure 400 {object} Envelope "Incomplete profile"
// @Router /applications/all [get]
func (h *ApplicationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "Applications retrieved", h.queries.All)
}
