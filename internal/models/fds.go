package models

import (
	"encoding/json"
	"reflect"
	"time"
)

// FDS is the application document: award metadata plus the sub-entities reviewers mutate.
type FDS struct {
	AwardType       string           `json:"award_type"`
	CyclePeriod     string           `json:"cycle_period"`
	Command         string           `json:"command,omitempty"`
	Parameters      []Parameter      `json:"parameters"`
	AcceptedMembers []AcceptedMember `json:"accepted_members,omitempty"`
	Signatures      []RoleSignatures `json:"signatures,omitempty"`
	Comments        []Comment        `json:"comments,omitempty"`
	GraceMarks      []GraceMark      `json:"applicationGraceMarks,omitempty"`
	Priorities      []PriorityEntry  `json:"applicationPriority,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type fdsFields FDS

func (f FDS) MarshalJSON() ([]byte, error) {
	return mergeExtra(fdsFields(f), f.Extra)
}

func (f *FDS) UnmarshalJSON(data []byte) error {
	var fields fdsFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitExtra(data, reflect.TypeOf(fields))
	if err != nil {
		return err
	}
	*f = FDS(fields)
	f.Extra = extra
	return nil
}

// Clone deep-copies every slice and nested slice of the document.
func (f FDS) Clone() FDS {
	c := f
	if f.Parameters != nil {
		c.Parameters = make([]Parameter, len(f.Parameters))
		for i, p := range f.Parameters {
			c.Parameters[i] = p.Clone()
		}
	}
	c.AcceptedMembers = append([]AcceptedMember(nil), f.AcceptedMembers...)
	if f.Signatures != nil {
		c.Signatures = make([]RoleSignatures, len(f.Signatures))
		for i, s := range f.Signatures {
			c.Signatures[i] = RoleSignatures{
				Role:                s.Role,
				SignaturesOfMembers: append([]MemberSignature(nil), s.SignaturesOfMembers...),
			}
		}
	}
	c.Comments = append([]Comment(nil), f.Comments...)
	c.GraceMarks = append([]GraceMark(nil), f.GraceMarks...)
	c.Priorities = append([]PriorityEntry(nil), f.Priorities...)
	c.Extra = cloneExtra(f.Extra)
	return c
}

// Parameter is one scored line item of an application.
type Parameter struct {
	Name           string  `json:"name"`
	Category       string  `json:"category,omitempty"`
	Subcategory    string  `json:"subcategory,omitempty"`
	Subsubcategory string  `json:"subsubcategory,omitempty"`
	Count          float64 `json:"count"`
	PerUnitMark    float64 `json:"per_unit_mark"`
	MaxMarks       float64 `json:"max_marks"`
	Marks          float64 `json:"marks"`
	Negative       bool    `json:"negative"`
	Info           string  `json:"info,omitempty"`

	ClarificationID            *int64  `json:"clarification_id,omitempty"`
	LastClarificationID        *int64  `json:"last_clarification_id,omitempty"`
	LastClarificationStatus    *string `json:"last_clarification_status,omitempty"`
	LastClarificationHandledBy *string `json:"last_clarification_handled_by,omitempty"`

	Comments []Comment `json:"comments,omitempty"`

	ApprovedMarks   *float64   `json:"approved_marks,omitempty"`
	ApprovedByUser  *int64     `json:"approved_by_user,omitempty"`
	ApprovedByRole  *string    `json:"approved_by_role,omitempty"`
	ApprovedMarksAt *time.Time `json:"approved_marks_at,omitempty"`

	// ClarificationDetails is populated on read paths only.
	ClarificationDetails *Clarification `json:"clarification_details,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type parameterFields Parameter

func (p Parameter) MarshalJSON() ([]byte, error) {
	return mergeExtra(parameterFields(p), p.Extra)
}

func (p *Parameter) UnmarshalJSON(data []byte) error {
	var fields parameterFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitExtra(data, reflect.TypeOf(fields))
	if err != nil {
		return err
	}
	*p = Parameter(fields)
	p.Extra = extra
	return nil
}

// Clone copies the parameter including its comment list.
func (p Parameter) Clone() Parameter {
	c := p
	c.Comments = append([]Comment(nil), p.Comments...)
	c.Extra = cloneExtra(p.Extra)
	return c
}

// Comment is left by a reviewer on the application or on one parameter.
// A list holds at most one comment per commenter.
type Comment struct {
	Comment             string    `json:"comment"`
	CommentedBy         int64     `json:"commented_by"`
	CommentedByRole     string    `json:"commented_by_role"`
	CommentedByRoleType string    `json:"commented_by_role_type,omitempty"`
	CommentedAt         time.Time `json:"commented_at"`
}

// AcceptedMember tracks one roster member's sign-off.
type AcceptedMember struct {
	MemberID         int64      `json:"member_id"`
	Name             string     `json:"name,omitempty"`
	Rank             string     `json:"rank,omitempty"`
	MemberType       string     `json:"member_type,omitempty"`
	MemberOrder      int        `json:"member_order,omitempty"`
	IsSignatureAdded bool       `json:"is_signature_added"`
	SignatureAddedAt *time.Time `json:"signature_added_at,omitempty"`
}

// RoleSignatures groups member signatures collected under one reviewing role.
type RoleSignatures struct {
	Role                string            `json:"role"`
	SignaturesOfMembers []MemberSignature `json:"signatures_of_members"`
}

type MemberSignature struct {
	ID               int64     `json:"id"`
	MemberOrder      int       `json:"member_order"`
	MemberType       string    `json:"member_type"`
	Name             string    `json:"name"`
	AddedSignature   string    `json:"added_signature"`
	SignatureAddedBy int64     `json:"signature_added_by"`
	SignatureAddedAt time.Time `json:"signature_added_at"`
}

// GraceMark is a discretionary bonus. At most one per role.
type GraceMark struct {
	Role    string    `json:"role"`
	Marks   float64   `json:"marks"`
	AddedBy int64     `json:"addedBy"`
	AddedAt time.Time `json:"addedAt"`
}

// PriorityEntry ranks an application within a role's shortlist.
// At most one per (role, cw2 type).
type PriorityEntry struct {
	Role            string    `json:"role"`
	Priority        int       `json:"priority"`
	CW2Type         string    `json:"cw2_type,omitempty"`
	AddedBy         int64     `json:"addedBy,omitempty"`
	PriorityAddedAt time.Time `json:"priorityAddedAt"`
}
