package service

import (
	"context"
	"fmt"

	"award-review/internal/apperrors"
	"award-review/internal/config"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
	"award-review/internal/query"
	"award-review/internal/scoring"
)

// ApplicationPage is one page of application views.
type ApplicationPage = query.Page[query.ApplicationView]

// QueryService serves the role-scoped application listings
type QueryService struct {
	store             Store
	liveNegativeFlags bool
}

// NewQueryService creates a new query service
func NewQueryService(store Store, cfg config.WorkflowConfig) *QueryService {
	return &QueryService{store: store, liveNegativeFlags: cfg.LiveNegativeFlags}
}

// UnitApplications lists the caller unit's own applications. Clarification ids are
// stripped and the status is hidden except on drafts.
func (s *QueryService) UnitApplications(ctx context.Context, caller models.Caller, f query.Filter) (ApplicationPage, error) {
	apps, err := s.store.Applications().ListAll(ctx, query.UnitOwn(caller.UnitID))
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("failed to list unit applications: %w", err)
	}
	apps = f.Apply(apps)

	clarifications, err := s.clarifications(ctx, false, apps)
	if err != nil {
		return ApplicationPage{}, err
	}
	views := query.BuildViews(apps, query.ViewOptions{
		Viewer:                caller.Role,
		Clarifications:        clarifications,
		StripClarificationIDs: true,
	})
	return finish(views, f, false), nil
}

// Subordinates lists the review, shortlist or withdrawal queue of a superior role.
// The shortlist is enriched with unit details and marks and ordered by the priority
// the immediate subordinate role declared.
func (s *QueryService) Subordinates(ctx context.Context, caller models.Caller, f query.Filter) (ApplicationPage, error) {
	unitIDs, err := s.subordinateUnits(ctx, caller)
	if err != nil {
		return ApplicationPage{}, err
	}
	if len(unitIDs) == 0 {
		return emptyPage(f), nil
	}

	pred, err := query.Subordinate(caller, unitIDs, f)
	if err != nil {
		return ApplicationPage{}, err
	}
	apps, err := s.store.Applications().ListAll(ctx, pred)
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("failed to list subordinate applications: %w", err)
	}
	apps = f.Apply(apps)

	clarifications, err := s.clarifications(ctx, false, apps)
	if err != nil {
		return ApplicationPage{}, err
	}
	opts := query.ViewOptions{Viewer: caller.Role, Clarifications: clarifications}
	if f.IsShortlisted {
		if err := s.enrich(ctx, &opts, apps); err != nil {
			return ApplicationPage{}, err
		}
	}
	views := reveal(query.BuildViews(apps, opts), caller.Role, clarifications)

	if f.IsShortlisted {
		lower, _ := hierarchy.LowerRole(caller.Role)
		query.SortByPriority(views, lower.String())
		return finish(views, f, true), nil
	}
	return finish(views, f, false), nil
}

// HQ lists the applications approved at command. cw2 reviewers of the hr, dv and mp
// types only see the applications routed to them.
func (s *QueryService) HQ(ctx context.Context, caller models.Caller, f query.Filter) (ApplicationPage, error) {
	if caller.Role != hierarchy.RoleHeadquarter && caller.Role != hierarchy.RoleCW2 {
		return ApplicationPage{}, apperrors.NewForbiddenError("only headquarter and cw2 can view the headquarter queue")
	}
	apps, err := s.store.Applications().ListAll(ctx, query.HQ(caller))
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("failed to list headquarter applications: %w", err)
	}
	apps = f.Apply(apps)

	clarifications, err := s.clarifications(ctx, false, apps)
	if err != nil {
		return ApplicationPage{}, err
	}
	opts := query.ViewOptions{
		Viewer:                caller.Role,
		Clarifications:        clarifications,
		StripClarificationIDs: true,
		WithTotals:            true,
	}
	if opts.NegativeFlags, err = s.negativeFlags(ctx, apps); err != nil {
		return ApplicationPage{}, err
	}
	return finish(query.BuildViews(apps, opts), f, false), nil
}

// Scoreboard ranks the command-approved applications by the priority the caller's
// role declared. Command sees its own subtree, headquarter sees everything.
func (s *QueryService) Scoreboard(ctx context.Context, caller models.Caller, f query.Filter) (ApplicationPage, error) {
	var pred query.Predicate
	switch caller.Role {
	case hierarchy.RoleHeadquarter:
		pred = query.Scoreboard(nil, false)
	case hierarchy.RoleCommand:
		unitIDs, err := s.subordinateUnits(ctx, caller)
		if err != nil {
			return ApplicationPage{}, err
		}
		if len(unitIDs) == 0 {
			return emptyPage(f), nil
		}
		pred = query.Scoreboard(unitIDs, true)
	default:
		return ApplicationPage{}, apperrors.NewForbiddenError("scoreboard is available to command and headquarter only")
	}

	apps, err := s.store.Applications().ListAll(ctx, pred)
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("failed to list scoreboard: %w", err)
	}
	apps = f.Apply(apps)

	clarifications, err := s.clarifications(ctx, true, apps)
	if err != nil {
		return ApplicationPage{}, err
	}
	opts := query.ViewOptions{Viewer: caller.Role, Clarifications: clarifications}
	if err := s.enrich(ctx, &opts, apps); err != nil {
		return ApplicationPage{}, err
	}
	views := reveal(query.BuildViews(apps, opts), caller.Role, clarifications)
	query.SortByPriority(views, caller.Role.String())
	return finish(views, f, true), nil
}

// History lists what the caller's level already acted on. cw2 reviewers see the
// applications their type signed off.
func (s *QueryService) History(ctx context.Context, caller models.Caller, f query.Filter) (ApplicationPage, error) {
	var pred query.Predicate
	switch {
	case caller.Role == hierarchy.RoleCW2:
		p, err := query.CW2History(caller.CW2Type)
		if err != nil {
			return ApplicationPage{}, err
		}
		pred = p

	case caller.Role == hierarchy.RoleUnit:
		p, err := query.History(caller, []int64{caller.UnitID})
		if err != nil {
			return ApplicationPage{}, err
		}
		pred = p

	default:
		if !caller.Role.InChain() {
			return ApplicationPage{}, apperrors.NewValidationError("role", "invalid role for history")
		}
		unitIDs, err := s.subordinateUnits(ctx, caller)
		if err != nil {
			return ApplicationPage{}, err
		}
		if len(unitIDs) == 0 {
			return emptyPage(f), nil
		}
		if pred, err = query.History(caller, unitIDs); err != nil {
			return ApplicationPage{}, err
		}
	}

	apps, err := s.store.Applications().ListAll(ctx, pred)
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("failed to list history: %w", err)
	}
	return s.plainList(ctx, caller, f, apps)
}

// All lists every application the caller can see. Callers other than headquarter
// need a complete unit profile for their role.
func (s *QueryService) All(ctx context.Context, caller models.Caller, f query.Filter) (ApplicationPage, error) {
	var unitIDs []int64
	if caller.Role != hierarchy.RoleHeadquarter {
		unit, err := s.profileUnit(ctx, caller)
		if err != nil {
			return ApplicationPage{}, err
		}
		if err := hierarchy.ValidateProfile(caller.Role, unit); err != nil {
			return ApplicationPage{}, err
		}
		if caller.Role == hierarchy.RoleUnit {
			unitIDs = []int64{unit.ID}
		} else {
			field, err := hierarchy.SubordinateField(caller.Role)
			if err != nil {
				return ApplicationPage{}, err
			}
			if unitIDs, err = s.store.Units().SubordinateIDs(ctx, field, unit.Name); err != nil {
				return ApplicationPage{}, fmt.Errorf("failed to resolve subordinate units: %w", err)
			}
			if len(unitIDs) == 0 {
				return emptyPage(f), nil
			}
		}
	}

	pred, err := query.All(caller, unitIDs)
	if err != nil {
		return ApplicationPage{}, err
	}
	apps, err := s.store.Applications().ListAll(ctx, pred)
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("failed to list applications: %w", err)
	}
	return s.plainList(ctx, caller, f, apps)
}

// Application returns one application with its unit name and the clarification
// details the caller may see. Units only see their own applications and drafts
// are private to the submitting unit.
func (s *QueryService) Application(ctx context.Context, caller models.Caller, t models.ApplicationType, id int64) (*query.ApplicationView, error) {
	app, err := s.store.Applications().GetByID(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	notFound := apperrors.NewNotFoundError(string(t), fmt.Sprint(id))
	if app == nil {
		return nil, notFound
	}
	owner := app.UnitID == caller.UnitID
	if caller.Role == hierarchy.RoleUnit && !owner {
		return nil, apperrors.NewForbiddenError("application belongs to another unit")
	}
	if app.Status == models.StatusDraft && !(owner && caller.Role == hierarchy.RoleUnit) {
		return nil, notFound
	}

	clarifications, err := s.clarifications(ctx, true, []*models.Application{app})
	if err != nil {
		return nil, err
	}
	units, err := s.store.Units().ByIDs(ctx, []int64{app.UnitID})
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	flags, err := s.negativeFlags(ctx, []*models.Application{app})
	if err != nil {
		return nil, err
	}

	revealed := query.RevealClarifications(app, caller.Role, clarifications)
	view := query.NewView(revealed, query.ViewOptions{
		Viewer:         caller.Role,
		Clarifications: clarifications,
		Units:          units,
		WithTotals:     true,
		NegativeFlags:  flags,
	})
	return &view, nil
}

// ClarificationInbox lists the caller unit's applications reduced to the parameters
// with an active clarification.
func (s *QueryService) ClarificationInbox(ctx context.Context, caller models.Caller, f query.Filter) (ApplicationPage, error) {
	if caller.Role != hierarchy.RoleUnit {
		return ApplicationPage{}, apperrors.NewForbiddenError("the clarification inbox is available to units only")
	}
	apps, err := s.store.Applications().ListAll(ctx, query.UnitOwn(caller.UnitID))
	if err != nil {
		return ApplicationPage{}, fmt.Errorf("failed to list unit applications: %w", err)
	}
	apps = f.Apply(apps)

	clarifications, err := s.clarifications(ctx, false, apps)
	if err != nil {
		return ApplicationPage{}, err
	}
	views := query.ClarificationInbox(apps, clarifications)
	query.SortByDateDesc(views)
	return query.Paginate(views, f.Page, f.Limit), nil
}

func (s *QueryService) plainList(ctx context.Context, caller models.Caller, f query.Filter, apps []*models.Application) (ApplicationPage, error) {
	apps = f.Apply(apps)
	clarifications, err := s.clarifications(ctx, false, apps)
	if err != nil {
		return ApplicationPage{}, err
	}
	views := query.BuildViews(apps, query.ViewOptions{Viewer: caller.Role, Clarifications: clarifications})
	return finish(reveal(views, caller.Role, clarifications), f, false), nil
}

// finish applies the clarification filter, orders the views unless already sorted,
// fills the running pending total and cuts the page.
func finish(views []query.ApplicationView, f query.Filter, sorted bool) ApplicationPage {
	if f.IsGetNotClarifications {
		views = query.WithoutPendingClarifications(views)
	}
	if !sorted {
		query.SortByDateDesc(views)
	}
	query.AccumulatePending(views)
	return query.Paginate(views, f.Page, f.Limit)
}

func emptyPage(f query.Filter) ApplicationPage {
	return query.Paginate([]query.ApplicationView{}, f.Page, f.Limit)
}

// reveal attaches the clarification details visible to viewer.
func reveal(views []query.ApplicationView, viewer hierarchy.Role, clarifications map[int64]*models.Clarification) []query.ApplicationView {
	for i := range views {
		views[i].Application = *query.RevealClarifications(&views[i].Application, viewer, clarifications)
	}
	return views
}

func (s *QueryService) clarifications(ctx context.Context, includeLast bool, apps []*models.Application) (map[int64]*models.Clarification, error) {
	c, err := s.store.Clarifications().ByIDs(ctx, query.ClarificationIDs(includeLast, apps...))
	if err != nil {
		return nil, fmt.Errorf("failed to load clarifications: %w", err)
	}
	return c, nil
}

// enrich adds unit details and marks to the views built from apps.
func (s *QueryService) enrich(ctx context.Context, opts *query.ViewOptions, apps []*models.Application) error {
	units, err := s.store.Units().ByIDs(ctx, unitIDsOf(apps))
	if err != nil {
		return fmt.Errorf("failed to load units: %w", err)
	}
	flags, err := s.negativeFlags(ctx, apps)
	if err != nil {
		return err
	}
	opts.Units = units
	opts.WithTotals = true
	opts.NegativeFlags = flags
	return nil
}

// negativeFlags reads the live catalog flags, or returns nil so the flag stored on
// each parameter is used.
func (s *QueryService) negativeFlags(ctx context.Context, apps []*models.Application) (map[string]bool, error) {
	if !s.liveNegativeFlags {
		return nil, nil
	}
	flags, err := s.store.Parameters().NegativeFlags(ctx, scoring.ParameterNames(apps...))
	if err != nil {
		return nil, fmt.Errorf("failed to load negative flags: %w", err)
	}
	return flags, nil
}

func (s *QueryService) profileUnit(ctx context.Context, caller models.Caller) (*models.Unit, error) {
	profile, err := s.store.Units().GetProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	if profile.Unit == nil {
		return nil, apperrors.NewNotFoundError("unit", fmt.Sprint(caller.UnitID))
	}
	return profile.Unit, nil
}

// subordinateUnits returns the ids of the units whose parent field for the caller's
// role names the caller's unit. The caller's own profile must be complete for its role.
func (s *QueryService) subordinateUnits(ctx context.Context, caller models.Caller) ([]int64, error) {
	field, err := hierarchy.SubordinateField(caller.Role)
	if err != nil {
		return nil, err
	}
	unit, err := s.profileUnit(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.ValidateProfile(caller.Role, unit); err != nil {
		return nil, err
	}
	ids, err := s.store.Units().SubordinateIDs(ctx, field, unit.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subordinate units: %w", err)
	}
	return ids, nil
}

func unitIDsOf(apps []*models.Application) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, a := range apps {
		if !seen[a.UnitID] {
			seen[a.UnitID] = true
			ids = append(ids, a.UnitID)
		}
	}
	return ids
}
