package workflow

import (
	"strconv"
	"strings"
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
	"award-review/internal/scoring"
)

// ParameterMarks overrides the marks of one parameter, matched by name.
type ParameterMarks struct {
	Name          string  `json:"name" validate:"required"`
	ApprovedMarks float64 `json:"approved_marks" validate:"gte=0"`
}

// MarksApproval bundles the independently optional parts of a marks approval.
type MarksApproval struct {
	Parameters []ParameterMarks
	GraceMarks *float64
	Priority   *int
	Remark     *string
}

// ApproveMarks applies reviewer overrides, grace marks, priority and remark to a copy of app.
func ApproveMarks(app *models.Application, in MarksApproval, caller models.Caller, now time.Time) (*models.Application, error) {
	next := app.Clone()
	role := caller.Role.String()

	for _, pm := range in.Parameters {
		p := findParameter(next.FDS.Parameters, pm.Name)
		if p == nil {
			return nil, apperrors.NewNotFoundError("parameter", pm.Name)
		}
		marks := pm.ApprovedMarks
		p.ApprovedMarks = &marks
		p.ApprovedByUser = models.Int64Ptr(caller.UserID)
		p.ApprovedByRole = models.StringPtr(role)
		p.ApprovedMarksAt = models.TimePtr(now)
	}

	if in.GraceMarks != nil {
		next.FDS.GraceMarks = UpsertGraceMark(next.FDS.GraceMarks, models.GraceMark{
			Role:    role,
			Marks:   *in.GraceMarks,
			AddedBy: caller.UserID,
			AddedAt: now,
		})
	}

	if in.Priority != nil {
		entry := models.PriorityEntry{
			Role:            role,
			Priority:        *in.Priority,
			AddedBy:         caller.UserID,
			PriorityAddedAt: now,
		}
		if caller.Role == hierarchy.RoleCW2 {
			entry.CW2Type = caller.CW2Type
		}
		next.FDS.Priorities = UpsertPriority(next.FDS.Priorities, entry)
	}

	if in.Remark != nil {
		next.Remarks = UpsertRemark(next.Remarks, models.Remark{
			Remarks:           *in.Remark,
			RemarkAddedByRole: role,
			RemarkAddedBy:     caller.UserID,
			RemarkAddedAt:     now,
		})
	}

	return next, nil
}

// UpsertGraceMark keeps at most one grace mark per role; the latest replaces the prior one.
func UpsertGraceMark(marks []models.GraceMark, g models.GraceMark) []models.GraceMark {
	out := append([]models.GraceMark(nil), marks...)
	for i := range out {
		if out[i].Role == g.Role {
			out[i] = g
			return out
		}
	}
	return append(out, g)
}

// UpsertPriority keeps at most one priority per (role, cw2 type).
func UpsertPriority(entries []models.PriorityEntry, p models.PriorityEntry) []models.PriorityEntry {
	out := append([]models.PriorityEntry(nil), entries...)
	for i := range out {
		if out[i].Role == p.Role && out[i].CW2Type == p.CW2Type {
			out[i] = p
			return out
		}
	}
	return append(out, p)
}

// UpsertRemark keeps at most one remark per role.
func UpsertRemark(remarks []models.Remark, r models.Remark) []models.Remark {
	out := append([]models.Remark(nil), remarks...)
	for i := range out {
		if out[i].RemarkAddedByRole == r.RemarkAddedByRole {
			out[i] = r
			return out
		}
	}
	return append(out, r)
}

// SignatureInput is a reviewer's signature for one roster member.
type SignatureInput struct {
	ID             int64  `json:"id" validate:"required"`
	MemberOrder    int    `json:"member_order"`
	MemberType     string `json:"member_type" validate:"required"`
	Name           string `json:"name" validate:"required"`
	AddedSignature string `json:"added_signature" validate:"required"`
}

// AddSignature records one signature per (role, member). The caller's role entry is created on first use.
func AddSignature(app *models.Application, in SignatureInput, caller models.Caller, now time.Time) (*models.Application, error) {
	if in.ID == 0 {
		return nil, apperrors.RequiredError("id")
	}
	if strings.TrimSpace(in.AddedSignature) == "" {
		return nil, apperrors.RequiredError("added_signature")
	}

	next := app.Clone()
	role := caller.Role.String()
	sig := models.MemberSignature{
		ID:               in.ID,
		MemberOrder:      in.MemberOrder,
		MemberType:       in.MemberType,
		Name:             in.Name,
		AddedSignature:   in.AddedSignature,
		SignatureAddedBy: caller.UserID,
		SignatureAddedAt: now,
	}

	for i := range next.FDS.Signatures {
		entry := &next.FDS.Signatures[i]
		if entry.Role != role {
			continue
		}
		for _, s := range entry.SignaturesOfMembers {
			if s.ID == in.ID {
				return nil, apperrors.NewDuplicateSignatureError(role, strconv.FormatInt(in.ID, 10))
			}
		}
		entry.SignaturesOfMembers = append(entry.SignaturesOfMembers, sig)
		return next, nil
	}

	next.FDS.Signatures = append(next.FDS.Signatures, models.RoleSignatures{
		Role:                role,
		SignaturesOfMembers: []models.MemberSignature{sig},
	})
	return next, nil
}

// ParameterComment targets one parameter by name.
type ParameterComment struct {
	Name    string `json:"name" validate:"required"`
	Comment string `json:"comment" validate:"required"`
}

// CommentInput holds an optional application-level comment and any number of parameter comments.
type CommentInput struct {
	Comment           *string
	ParameterComments []ParameterComment
}

// AddComments upserts the caller's comments on the application and on the named parameters.
func AddComments(app *models.Application, in CommentInput, caller models.Caller, now time.Time) (*models.Application, error) {
	if in.Comment == nil && len(in.ParameterComments) == 0 {
		return nil, apperrors.NewValidationError("comment", "nothing to add")
	}

	next := app.Clone()
	newComment := func(text string) models.Comment {
		return models.Comment{
			Comment:             text,
			CommentedBy:         caller.UserID,
			CommentedByRole:     caller.Role.String(),
			CommentedByRoleType: caller.CW2Type,
			CommentedAt:         now,
		}
	}

	if in.Comment != nil {
		next.FDS.Comments = UpsertComment(next.FDS.Comments, newComment(*in.Comment))
	}

	for _, pc := range in.ParameterComments {
		p := findParameter(next.FDS.Parameters, pc.Name)
		if p == nil {
			return nil, apperrors.NewNotFoundError("parameter", pc.Name)
		}
		p.Comments = UpsertComment(p.Comments, newComment(pc.Comment))
	}

	return next, nil
}

// UpsertComment keeps at most one comment per commenter.
func UpsertComment(comments []models.Comment, c models.Comment) []models.Comment {
	out := append([]models.Comment(nil), comments...)
	for i := range out {
		if out[i].CommentedBy == c.CommentedBy {
			out[i] = c
			return out
		}
	}
	return append(out, c)
}

// AttachClarification points the named parameter at a newly raised clarification.
func AttachClarification(app *models.Application, parameterName string, clarificationID int64) (*models.Application, error) {
	next := app.Clone()
	p := findParameter(next.FDS.Parameters, parameterName)
	if p == nil {
		return nil, apperrors.NewNotFoundError("parameter", parameterName)
	}
	p.ClarificationID = models.Int64Ptr(clarificationID)
	return next, nil
}

func findParameter(params []models.Parameter, name string) *models.Parameter {
	target := scoring.NormalizeName(name)
	for i := range params {
		if scoring.NormalizeName(params[i].Name) == target {
			return &params[i]
		}
	}
	return nil
}
