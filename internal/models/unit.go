package models

import "award-review/internal/hierarchy"

// Unit is an organizational node. Parent links hold the parent's name, not its id.
type Unit struct {
	ID        int64    `json:"unit_id"`
	Name      string   `json:"name"`
	Bde       string   `json:"bde"`
	Div       string   `json:"div"`
	Corps     string   `json:"corps"`
	Comd      string   `json:"comd"`
	IsSpecial bool     `json:"is_special_unit"`
	Members   []Member `json:"members,omitempty"`
}

// Field returns a named hierarchy field. It satisfies hierarchy.Unit.
func (u *Unit) Field(name string) string {
	if u == nil {
		return ""
	}
	switch name {
	case "name":
		return u.Name
	case "bde":
		return u.Bde
	case "div":
		return u.Div
	case "corps":
		return u.Corps
	case "comd":
		return u.Comd
	}
	return ""
}

// Member belongs to a unit's signing roster.
type Member struct {
	ID          int64  `json:"id"`
	UnitID      int64  `json:"unit_id"`
	Name        string `json:"name"`
	Rank        string `json:"rank,omitempty"`
	MemberType  string `json:"member_type"`
	MemberOrder int    `json:"member_order"`
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID  int64          `json:"user_id"`
	Role    hierarchy.Role `json:"role"`
	UnitID  int64          `json:"unit_id"`
	CW2Type string         `json:"cw2_type,omitempty"`
}

// Profile is the caller's resolved user and unit, including the unit roster.
type Profile struct {
	User Caller `json:"user"`
	Unit *Unit  `json:"unit"`
}
