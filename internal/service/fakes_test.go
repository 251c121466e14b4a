package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/models"
	"award-review/internal/query"
	"award-review/internal/scoring"
)

// memStore is an in-memory Store. WithinTx snapshots the application and
// clarification tables and restores them when fn fails.
type memStore struct {
	apps           *memApps
	clarifications *memClarifications
	params         *memParams
	units          *memUnits
	drafts         *memDrafts
	audit          *memAudit
}

func newMemStore() *memStore {
	return &memStore{
		apps:           &memApps{rows: map[appKey]*models.Application{}, nextID: 1},
		clarifications: &memClarifications{rows: map[int64]*models.Clarification{}, nextID: 1},
		params:         &memParams{},
		units:          &memUnits{units: map[int64]*models.Unit{}},
		drafts:         &memDrafts{rows: map[draftKey]*models.Draft{}},
		audit:          &memAudit{},
	}
}

func (s *memStore) Applications() ApplicationStore     { return s.apps }
func (s *memStore) Clarifications() ClarificationStore { return s.clarifications }
func (s *memStore) Parameters() ParameterStore         { return s.params }
func (s *memStore) Units() UnitStore                   { return s.units }
func (s *memStore) Drafts() DraftStore                 { return s.drafts }
func (s *memStore) Audit() AuditStore                  { return s.audit }

func (s *memStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	apps := s.apps.snapshot()
	clarifications := s.clarifications.snapshot()
	audit := len(s.audit.logs)
	if err := fn(s); err != nil {
		s.apps.rows = apps
		s.clarifications.rows = clarifications
		s.audit.logs = s.audit.logs[:audit]
		return err
	}
	return nil
}

// add stores app as-is and returns it.
func (s *memStore) add(app *models.Application) *models.Application {
	if app.ID == 0 {
		app.ID = s.apps.nextID
		s.apps.nextID++
	}
	if app.Version == 0 {
		app.Version = 1
	}
	s.apps.rows[appKey{app.Type, app.ID}] = app.Clone()
	return app
}

func (s *memStore) app(t models.ApplicationType, id int64) *models.Application {
	return s.apps.rows[appKey{t, id}]
}

type appKey struct {
	t  models.ApplicationType
	id int64
}

type memApps struct {
	rows     map[appKey]*models.Application
	nextID   int64
	lastPred query.Predicate
}

func (m *memApps) snapshot() map[appKey]*models.Application {
	out := make(map[appKey]*models.Application, len(m.rows))
	for k, v := range m.rows {
		out[k] = v.Clone()
	}
	return out
}

func (m *memApps) GetByID(ctx context.Context, t models.ApplicationType, id int64) (*models.Application, error) {
	return m.rows[appKey{t, id}].Clone(), nil
}

func (m *memApps) GetForUpdate(ctx context.Context, t models.ApplicationType, id int64) (*models.Application, error) {
	return m.GetByID(ctx, t, id)
}

func (m *memApps) Create(ctx context.Context, app *models.Application) error {
	app.ID = m.nextID
	m.nextID++
	app.Version = 1
	app.DateInit = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(app.ID) * time.Hour)
	m.rows[appKey{app.Type, app.ID}] = app.Clone()
	return nil
}

func (m *memApps) Update(ctx context.Context, app *models.Application) error {
	cur, ok := m.rows[appKey{app.Type, app.ID}]
	if !ok {
		return apperrors.NewNotFoundError(string(app.Type), fmt.Sprint(app.ID))
	}
	if cur.Version != app.Version {
		return apperrors.NewConflictError(string(app.Type), app.ID)
	}
	app.Version++
	m.rows[appKey{app.Type, app.ID}] = app.Clone()
	return nil
}

func (m *memApps) List(ctx context.Context, t models.ApplicationType, p query.Predicate) ([]*models.Application, error) {
	all, _ := m.ListAll(ctx, p)
	var out []*models.Application
	for _, a := range all {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListAll ignores the predicate and returns every stored row, newest first.
func (m *memApps) ListAll(ctx context.Context, p query.Predicate) ([]*models.Application, error) {
	m.lastPred = p
	out := make([]*models.Application, 0, len(m.rows))
	for _, a := range m.rows {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateInit.After(out[j].DateInit) })
	return out, nil
}

type memClarifications struct {
	rows   map[int64]*models.Clarification
	nextID int64
}

func (m *memClarifications) snapshot() map[int64]*models.Clarification {
	out := make(map[int64]*models.Clarification, len(m.rows))
	for k, v := range m.rows {
		c := *v
		out[k] = &c
	}
	return out
}

func (m *memClarifications) Create(ctx context.Context, c *models.Clarification) error {
	c.ID = m.nextID
	m.nextID++
	if c.ClarificationStatus == "" {
		c.ClarificationStatus = models.ClarificationPending
	}
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memClarifications) GetByID(ctx context.Context, id int64) (*models.Clarification, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memClarifications) GetForUpdate(ctx context.Context, id int64) (*models.Clarification, error) {
	return m.GetByID(ctx, id)
}

func (m *memClarifications) ByIDs(ctx context.Context, ids []int64) (map[int64]*models.Clarification, error) {
	out := make(map[int64]*models.Clarification)
	for _, id := range ids {
		if c, ok := m.rows[id]; ok {
			cp := *c
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memClarifications) Update(ctx context.Context, c *models.Clarification) error {
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memClarifications) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Clarification, error) {
	out := []models.Clarification{}
	for _, c := range m.rows {
		if c.IsPending() && c.CreatedAt.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memClarifications) CountPending(ctx context.Context) (int, error) {
	n := 0
	for _, c := range m.rows {
		if c.IsPending() {
			n++
		}
	}
	return n, nil
}

type memParams struct {
	catalog []models.ParameterMaster
	nextID  int64
}

func (m *memParams) ListByAwardType(ctx context.Context, awardType string) ([]models.ParameterMaster, error) {
	var out []models.ParameterMaster
	for _, p := range m.catalog {
		if awardType == "" || p.AwardType == awardType {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memParams) GetByID(ctx context.Context, id int64) (*models.ParameterMaster, error) {
	for _, p := range m.catalog {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memParams) Create(ctx context.Context, p *models.ParameterMaster) error {
	m.nextID++
	p.ID = m.nextID
	m.catalog = append(m.catalog, *p)
	return nil
}

func (m *memParams) Update(ctx context.Context, p *models.ParameterMaster) error {
	for i := range m.catalog {
		if m.catalog[i].ID == p.ID {
			m.catalog[i] = *p
			return nil
		}
	}
	return apperrors.NewNotFoundError("parameter", fmt.Sprint(p.ID))
}

func (m *memParams) Delete(ctx context.Context, id int64) error {
	for i := range m.catalog {
		if m.catalog[i].ID == id {
			m.catalog = append(m.catalog[:i], m.catalog[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("parameter", fmt.Sprint(id))
}

func (m *memParams) NegativeFlags(ctx context.Context, names []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, p := range m.catalog {
		n := scoring.NormalizeName(p.Name)
		for _, want := range names {
			if n == want {
				out[n] = out[n] || p.Negative
			}
		}
	}
	return out, nil
}

type memUnits struct {
	units map[int64]*models.Unit
}

func (m *memUnits) addUnit(u *models.Unit) { m.units[u.ID] = u }

func (m *memUnits) GetByID(ctx context.Context, id int64) (*models.Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUnits) SubordinateIDs(ctx context.Context, column, parentName string) ([]int64, error) {
	var ids []int64
	for id, u := range m.units {
		if u.Field(column) == parentName {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memUnits) ByIDs(ctx context.Context, ids []int64) (map[int64]*models.Unit, error) {
	out := make(map[int64]*models.Unit)
	for _, id := range ids {
		if u, ok := m.units[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memUnits) Members(ctx context.Context, unitID int64) ([]models.Member, error) {
	if u, ok := m.units[unitID]; ok {
		return u.Members, nil
	}
	return nil, nil
}

func (m *memUnits) GetProfile(ctx context.Context, caller models.Caller) (*models.Profile, error) {
	u, ok := m.units[caller.UnitID]
	if !ok {
		return nil, apperrors.NewNotFoundError("unit", fmt.Sprint(caller.UnitID))
	}
	cp := *u
	return &models.Profile{User: caller, Unit: &cp}, nil
}

type draftKey struct {
	user int64
	t    models.ApplicationType
}

type memDrafts struct {
	rows map[draftKey]*models.Draft
}

func (m *memDrafts) Upsert(ctx context.Context, d *models.Draft) error {
	cp := *d
	m.rows[draftKey{d.UserID, d.Type}] = &cp
	return nil
}

func (m *memDrafts) Get(ctx context.Context, userID int64, t models.ApplicationType) (*models.Draft, error) {
	return m.rows[draftKey{userID, t}], nil
}

func (m *memDrafts) Delete(ctx context.Context, userID int64, t models.ApplicationType) (bool, error) {
	k := draftKey{userID, t}
	_, ok := m.rows[k]
	delete(m.rows, k)
	return ok, nil
}

func (m *memDrafts) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for k, d := range m.rows {
		if d.UpdatedAt.Before(cutoff) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

type memAudit struct {
	logs []models.AuditLog
}

func (m *memAudit) Create(ctx context.Context, log *models.AuditLog) error {
	log.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memAudit) GetByApplication(ctx context.Context, t models.ApplicationType, id int64) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, l := range m.logs {
		if l.ApplicationType == t && l.ApplicationID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// seedHierarchy stores a command, corps, division, brigade and two units below it.
// The brigade (id 4) has a two-member signing roster.
func seedHierarchy(s *memStore) {
	s.units.addUnit(&models.Unit{ID: 1, Name: "North Comd"})
	s.units.addUnit(&models.Unit{ID: 2, Name: "1 Corps", Comd: "North Comd"})
	s.units.addUnit(&models.Unit{ID: 3, Name: "10 Div", Corps: "1 Corps", Comd: "North Comd"})
	s.units.addUnit(&models.Unit{ID: 4, Name: "100 Bde", Div: "10 Div", Corps: "1 Corps", Comd: "North Comd",
		Members: []models.Member{{ID: 41, UnitID: 4, Name: "Col A"}, {ID: 42, UnitID: 4, Name: "Maj B"}}})
	s.units.addUnit(&models.Unit{ID: 10, Name: "5 Rifles", Bde: "100 Bde", Div: "10 Div", Corps: "1 Corps", Comd: "North Comd"})
	s.units.addUnit(&models.Unit{ID: 11, Name: "6 Rifles", Bde: "100 Bde", Div: "10 Div", Corps: "1 Corps", Comd: "North Comd"})
	s.units.addUnit(&models.Unit{ID: 12, Name: "Half Unit"})
}

func seedCatalog(s *memStore) {
	s.params.catalog = []models.ParameterMaster{
		{ID: 1, Name: "Enemy Kills", Category: "Operations", AwardType: "citation", PerUnitMark: 2, MaxMarks: 10},
		{ID: 2, Name: "Recovery", Category: "Operations", Subcategory: "Weapons", AwardType: "citation", PerUnitMark: 1, MaxMarks: 5},
		{ID: 3, Name: "Fratricide", Category: "Discipline", AwardType: "citation", PerUnitMark: 4, MaxMarks: 8, Negative: true},
	}
}

func sampleApp(unitID int64, status models.Status) *models.Application {
	return &models.Application{
		Type:     models.TypeCitation,
		UnitID:   unitID,
		Status:   status,
		DateInit: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		FDS: models.FDS{
			AwardType:   "citation",
			CyclePeriod: "Cycle 2024",
			Parameters: []models.Parameter{
				{Name: "Enemy Kills", Count: 5, Marks: 10},
				{Name: "Recovery", Count: 5, Marks: 5},
				{Name: "Fratricide", Count: 2, Marks: 8, Negative: true},
			},
		},
	}
}
