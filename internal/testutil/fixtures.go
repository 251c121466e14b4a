package testutil

import (
	"database/sql"
	"testing"

	"award-review/internal/hierarchy"
	"award-review/internal/models"
)

// Fixtures holds test data: one chain of command down to two units, a signing
// roster on every reviewing formation and a small citation catalog.
type Fixtures struct {
	DB        *sql.DB
	Command   *models.Unit
	Corps     *models.Unit
	Division  *models.Unit
	Brigade   *models.Unit
	Unit      *models.Unit
	Sibling   *models.Unit
	Members   map[int64][]models.Member
	Catalog   []models.ParameterMaster
	UnitUser  models.Caller
	Reviewers map[hierarchy.Role]models.Caller
}

// SetupFixtures creates test data
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	f := &Fixtures{DB: db, Members: map[int64][]models.Member{}}

	f.Command = createUnit(t, db, models.Unit{Name: "North Comd"})
	f.Corps = createUnit(t, db, models.Unit{Name: "1 Corps", Comd: "North Comd"})
	f.Division = createUnit(t, db, models.Unit{Name: "10 Div", Corps: "1 Corps", Comd: "North Comd"})
	f.Brigade = createUnit(t, db, models.Unit{Name: "100 Bde", Div: "10 Div", Corps: "1 Corps", Comd: "North Comd"})
	f.Unit = createUnit(t, db, models.Unit{Name: "5 Rifles", Bde: "100 Bde", Div: "10 Div", Corps: "1 Corps", Comd: "North Comd"})
	f.Sibling = createUnit(t, db, models.Unit{Name: "6 Rifles", Bde: "100 Bde", Div: "10 Div", Corps: "1 Corps", Comd: "North Comd"})

	f.Reviewers = map[hierarchy.Role]models.Caller{}
	reviewing := hierarchy.Chain()[1:]
	for i, u := range []*models.Unit{f.Brigade, f.Division, f.Corps, f.Command} {
		role := reviewing[i]
		f.Members[u.ID] = []models.Member{
			createMember(t, db, u.ID, "Presiding Officer", "presiding_officer", 1),
			createMember(t, db, u.ID, "Member One", "member", 2),
		}
		f.Reviewers[role] = models.Caller{UserID: int64(100 + i), Role: role, UnitID: u.ID}
	}
	f.Reviewers[hierarchy.RoleHeadquarter] = models.Caller{UserID: 200, Role: hierarchy.RoleHeadquarter}
	f.UnitUser = models.Caller{UserID: 1, Role: hierarchy.RoleUnit, UnitID: f.Unit.ID}

	f.Catalog = []models.ParameterMaster{
		createParameter(t, db, models.ParameterMaster{Name: "Enemy Kills", Category: "Operations", AwardType: "citation", PerUnitMark: 2, MaxMarks: 10}),
		createParameter(t, db, models.ParameterMaster{Name: "Recovery", Category: "Operations", Subcategory: "Weapons", AwardType: "citation", PerUnitMark: 1, MaxMarks: 5}),
		createParameter(t, db, models.ParameterMaster{Name: "Fratricide", Category: "Discipline", AwardType: "citation", PerUnitMark: 4, MaxMarks: 8, Negative: true}),
	}
	return f
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func createUnit(t *testing.T, db *sql.DB, u models.Unit) *models.Unit {
	t.Helper()

	err := db.QueryRow(`
		INSERT INTO Unit_tab (name, bde, div, corps, comd, is_special_unit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING unit_id
	`, u.Name, nullable(u.Bde), nullable(u.Div), nullable(u.Corps), nullable(u.Comd), u.IsSpecial).Scan(&u.ID)
	if err != nil {
		t.Fatalf("Failed to create unit %s: %v", u.Name, err)
	}
	return &u
}

func createMember(t *testing.T, db *sql.DB, unitID int64, name, memberType string, order int) models.Member {
	t.Helper()

	m := models.Member{UnitID: unitID, Name: name, MemberType: memberType, MemberOrder: order}
	err := db.QueryRow(`
		INSERT INTO Unit_members (unit_id, name, member_type, member_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, unitID, name, memberType, order).Scan(&m.ID)
	if err != nil {
		t.Fatalf("Failed to create member %s: %v", name, err)
	}
	return m
}

func createParameter(t *testing.T, db *sql.DB, p models.ParameterMaster) models.ParameterMaster {
	t.Helper()

	err := db.QueryRow(`
		INSERT INTO Parameter_Master (name, category, subcategory, subsubcategory, award_type, per_unit_mark, max_marks, negative)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING param_id
	`, p.Name, nullable(p.Category), nullable(p.Subcategory), nullable(p.Subsubcategory),
		p.AwardType, p.PerUnitMark, p.MaxMarks, p.Negative).Scan(&p.ID)
	if err != nil {
		t.Fatalf("Failed to create parameter %s: %v", p.Name, err)
	}
	return p
}
