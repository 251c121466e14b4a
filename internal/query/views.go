package query

import (
	"math"
	"sort"
	"strings"

	"award-review/internal/hierarchy"
	"award-review/internal/models"
	"award-review/internal/scoring"
)

// ApplicationView is an application as returned by the list endpoints.
type ApplicationView struct {
	models.Application

	// Status shadows the embedded status_flag so it can be hidden from units.
	Status *models.Status `json:"status_flag,omitempty"`

	UnitName    string       `json:"unit_name,omitempty"`
	UnitDetails *models.Unit `json:"unit_details,omitempty"`

	ClarificationsCount        int `json:"clarifications_count"`
	TotalPendingClarifications int `json:"total_pending_clarifications"`

	*scoring.Totals
	Priority *int `json:"priority,omitempty"`
}

// ViewOptions controls how applications are shaped for a caller.
type ViewOptions struct {
	Viewer hierarchy.Role
	// Clarifications holds every clarification referenced by the result set, by id.
	Clarifications map[int64]*models.Clarification
	// StripClarificationIDs drops active clarification ids from list items.
	StripClarificationIDs bool
	// Units attaches unit_details when non-nil.
	Units map[int64]*models.Unit
	// WithTotals computes totalMarks, totalNegativeMarks and netMarks.
	WithTotals    bool
	NegativeFlags map[string]bool
}

// NewView shapes a copy of app. It never mutates app.
func NewView(app *models.Application, opts ViewOptions) ApplicationView {
	c := app.Clone()
	v := ApplicationView{Application: *c}

	if opts.Viewer != hierarchy.RoleUnit || c.Status == models.StatusDraft {
		status := c.Status
		v.Status = &status
	}

	v.ClarificationsCount = PendingCount(c, opts.Clarifications)

	if opts.StripClarificationIDs {
		for i := range v.FDS.Parameters {
			v.FDS.Parameters[i].ClarificationID = nil
		}
	}

	if opts.Units != nil {
		if u, ok := opts.Units[c.UnitID]; ok {
			v.UnitDetails = u
			v.UnitName = u.Name
		}
	}

	if opts.WithTotals {
		totals := scoring.AggregateNetMarks(c.FDS.Parameters, opts.NegativeFlags)
		v.Totals = &totals
	}
	return v
}

// BuildViews shapes every application with the same options.
func BuildViews(apps []*models.Application, opts ViewOptions) []ApplicationView {
	views := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		views = append(views, NewView(a, opts))
	}
	return views
}

// ClarificationIDs collects the distinct active clarification ids of apps.
// With includeLast, resolved ids are collected as well.
func ClarificationIDs(includeLast bool, apps ...*models.Application) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	add := func(id *int64) {
		if id == nil || seen[*id] {
			return
		}
		seen[*id] = true
		ids = append(ids, *id)
	}
	for _, a := range apps {
		if a == nil {
			continue
		}
		for _, p := range a.FDS.Parameters {
			add(p.ClarificationID)
			if includeLast {
				add(p.LastClarificationID)
			}
		}
	}
	return ids
}

// PendingCount counts the parameters whose active clarification is still pending.
func PendingCount(app *models.Application, clarifications map[int64]*models.Clarification) int {
	n := 0
	for _, p := range app.FDS.Parameters {
		if p.ClarificationID == nil {
			continue
		}
		if clarifications[*p.ClarificationID].IsPending() {
			n++
		}
	}
	return n
}

// AccumulatePending fills total_pending_clarifications as a running total in the
// current order of views.
func AccumulatePending(views []ApplicationView) {
	total := 0
	for i := range views {
		total += views[i].ClarificationsCount
		views[i].TotalPendingClarifications = total
	}
}

// WithoutPendingClarifications keeps the views with no pending clarification.
func WithoutPendingClarifications(views []ApplicationView) []ApplicationView {
	out := make([]ApplicationView, 0, len(views))
	for _, v := range views {
		if v.ClarificationsCount == 0 {
			out = append(out, v)
		}
	}
	return out
}

// SortByDateDesc orders views newest first.
func SortByDateDesc(views []ApplicationView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].DateInit.After(views[j].DateInit)
	})
}

// SortByPriority orders views ascending by the priority declared for role and
// sets each view's priority. Views without one sort last; ties keep their order.
func SortByPriority(views []ApplicationView, role string) {
	for i := range views {
		if p, ok := PriorityFor(views[i].FDS, role); ok {
			views[i].Priority = &p
		}
	}
	key := func(v ApplicationView) int {
		if v.Priority == nil {
			return math.MaxInt
		}
		return *v.Priority
	}
	sort.SliceStable(views, func(i, j int) bool {
		return key(views[i]) < key(views[j])
	})
}

// PriorityFor returns the priority recorded by role. Role matching ignores case.
func PriorityFor(fds models.FDS, role string) (int, bool) {
	for _, p := range fds.Priorities {
		if strings.EqualFold(p.Role, role) {
			return p.Priority, true
		}
	}
	return 0, false
}

// RevealClarifications attaches clarification details to the parameters of a
// single application. A clarification raised by a level below the viewer is
// hidden along with its ids.
func RevealClarifications(app *models.Application, viewer hierarchy.Role, clarifications map[int64]*models.Clarification) *models.Application {
	next := app.Clone()
	viewerIdx := hierarchy.IndexOf(viewer)

	for i := range next.FDS.Parameters {
		p := &next.FDS.Parameters[i]
		id := p.ClarificationID
		if id == nil {
			id = p.LastClarificationID
		}
		if id == nil {
			continue
		}
		c := clarifications[*id]
		p.ClarificationDetails = c
		if c == nil {
			continue
		}
		raiserIdx := hierarchy.IndexOf(hierarchy.Parse(c.ClarificationByRole))
		if raiserIdx >= 0 && viewerIdx > raiserIdx {
			p.ClarificationID = nil
			p.LastClarificationID = nil
			p.ClarificationDetails = nil
		}
	}
	return next
}

// ClarificationInbox reduces each application to the parameters with an active
// clarification, details attached. Applications with none are dropped.
func ClarificationInbox(apps []*models.Application, clarifications map[int64]*models.Clarification) []ApplicationView {
	out := make([]ApplicationView, 0, len(apps))
	for _, a := range apps {
		c := a.Clone()
		params := make([]models.Parameter, 0, len(c.FDS.Parameters))
		for _, p := range c.FDS.Parameters {
			if p.ClarificationID == nil {
				continue
			}
			p.ClarificationDetails = clarifications[*p.ClarificationID]
			params = append(params, p)
		}
		if len(params) == 0 {
			continue
		}
		c.FDS.Parameters = params
		v := NewView(c, ViewOptions{Viewer: hierarchy.RoleUnit, Clarifications: clarifications})
		out = append(out, v)
	}
	return out
}
