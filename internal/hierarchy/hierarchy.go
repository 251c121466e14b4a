// Package hierarchy resolves the fixed chain of reviewing roles and the
// organizational unit fields that link a unit to its parents.
package hierarchy

import (
	"strings"

	"award-review/internal/apperrors"
)

// Role is a caller role. The chain roles are ordered; headquarter and cw2 sit outside the chain.
type Role string

const (
	RoleUnit        Role = "unit"
	RoleBrigade     Role = "brigade"
	RoleDivision    Role = "division"
	RoleCorps       Role = "corps"
	RoleCommand     Role = "command"
	RoleHeadquarter Role = "headquarter"
	RoleCW2         Role = "cw2"
)

// chain is ordered from most junior to most senior.
var chain = []Role{RoleUnit, RoleBrigade, RoleDivision, RoleCorps, RoleCommand}

// CW2 sub-types.
const (
	CW2MedicalOfficer    = "mo"
	CW2OperationsLeader  = "ol"
	CW2HumanResources    = "hr"
	CW2DisciplineVetting = "dv"
	CW2MilitaryPolice    = "mp"
)

// Parse normalizes a role string.
func Parse(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Chain returns a copy of the ordered role chain.
func Chain() []Role {
	out := make([]Role, len(chain))
	copy(out, chain)
	return out
}

// IndexOf returns the position of role in the chain, or -1 when the role is not part of it.
func IndexOf(role Role) int {
	r := Parse(string(role))
	for i, c := range chain {
		if c == r {
			return i
		}
	}
	return -1
}

// Index is shorthand for IndexOf(r).
func (r Role) Index() int { return IndexOf(r) }

func (r Role) String() string { return string(r) }

// InChain reports whether r is one of the ordered reviewing roles.
func (r Role) InChain() bool { return IndexOf(r) >= 0 }

// LowerRole returns the role immediately below role. ok is false at unit level
// and for roles outside the chain.
func LowerRole(role Role) (Role, bool) {
	idx := IndexOf(role)
	if idx <= 0 {
		return "", false
	}
	return chain[idx-1], true
}

// IsAbove reports whether a is strictly senior to b in the chain.
func IsAbove(a, b Role) bool {
	ia, ib := IndexOf(a), IndexOf(b)
	if ia < 0 || ib < 0 {
		return false
	}
	return ia > ib
}

// RolesFrom returns role and every role above it.
func RolesFrom(role Role) []Role {
	idx := IndexOf(role)
	if idx < 0 {
		return nil
	}
	return append([]Role(nil), chain[idx:]...)
}

// RolesUpTo returns every role from unit up to and including role.
func RolesUpTo(role Role) []Role {
	idx := IndexOf(role)
	if idx < 0 {
		return nil
	}
	return append([]Role(nil), chain[:idx+1]...)
}

// Strings converts roles for use as SQL array parameters.
func Strings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// unitFields maps a reviewing role to the Unit field holding the parent name at that level.
var unitFields = map[Role]string{
	RoleBrigade:  "bde",
	RoleDivision: "div",
	RoleCorps:    "corps",
	RoleCommand:  "comd",
}

// SubordinateField returns the unit column that points at a caller of role.
// Unit-level and unrecognized roles have no subordinates and produce a validation error.
func SubordinateField(role Role) (string, error) {
	idx := IndexOf(role)
	if idx < 0 {
		return "", apperrors.NewValidationError("role", "invalid role")
	}
	if idx == 0 {
		return "", apperrors.NewValidationError("role", "unit role has no subordinate units")
	}
	return unitFields[chain[idx]], nil
}

// Unit exposes the named fields of an organizational unit profile.
type Unit interface {
	Field(name string) string
}

var requiredByRole = map[Role][]string{
	RoleUnit:     {"bde", "div", "corps", "comd", "name"},
	RoleBrigade:  {"div", "corps", "comd", "name"},
	RoleDivision: {"corps", "comd", "name"},
	RoleCorps:    {"comd", "name"},
	RoleCommand:  {"name"},
}

// RequiredProfileFields returns the unit fields a caller of role must have filled in.
func RequiredProfileFields(role Role) []string {
	return requiredByRole[Parse(string(role))]
}

// ValidateProfile fails with a ProfileIncompleteError when any required field is blank.
func ValidateProfile(role Role, unit Unit) error {
	required := RequiredProfileFields(role)
	if required == nil {
		return apperrors.NewValidationError("role", "invalid role")
	}
	return requireFields(unit, required)
}

// ValidateSubmitterProfile checks the fields a unit needs before submitting an application.
// Special units report straight to a command and only need a name and command.
func ValidateSubmitterProfile(unit Unit, special bool) error {
	if special {
		return requireFields(unit, []string{"name", "comd"})
	}
	return requireFields(unit, []string{"name", "bde", "div", "corps", "comd"})
}

func requireFields(unit Unit, fields []string) error {
	if unit == nil {
		return apperrors.NewProfileIncompleteError(fields)
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(unit.Field(f)) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewProfileIncompleteError(missing)
	}
	return nil
}
