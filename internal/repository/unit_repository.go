package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

// UnitRepository handles units and their signing rosters. It also serves as the
// profile provider for authenticated callers.
type UnitRepository struct {
	db DBTX
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db DBTX) *UnitRepository {
	return &UnitRepository{db: db}
}

const unitColumns = `unit_id, name, COALESCE(bde, ''), COALESCE(div, ''), COALESCE(corps, ''), COALESCE(comd, ''), is_special_unit`

func scanUnit(s rowScanner) (*models.Unit, error) {
	u := &models.Unit{}
	err := s.Scan(&u.ID, &u.Name, &u.Bde, &u.Div, &u.Corps, &u.Comd, &u.IsSpecial)
	return u, err
}

// parentColumns whitelists the columns SubordinateIDs may filter on.
var parentColumns = map[string]bool{"bde": true, "div": true, "corps": true, "comd": true}

// GetByID retrieves a unit without its roster, or nil when it does not exist.
func (r *UnitRepository) GetByID(ctx context.Context, id int64) (*models.Unit, error) {
	u, err := scanUnit(r.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM Unit_tab WHERE unit_id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit %d: %w", id, err)
	}
	return u, nil
}

// SubordinateIDs returns the ids of units whose parent column equals parentName.
func (r *UnitRepository) SubordinateIDs(ctx context.Context, column, parentName string) ([]int64, error) {
	if !parentColumns[column] {
		return nil, apperrors.NewValidationError("role", "unknown unit hierarchy field "+column)
	}
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT unit_id FROM Unit_tab WHERE %s = $1 ORDER BY unit_id`, column), parentName)
	if err != nil {
		return nil, fmt.Errorf("failed to get subordinate units: %w", err)
	}
	defer closeRows(rows)

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan unit id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ByIDs batch-loads units keyed by id.
func (r *UnitRepository) ByIDs(ctx context.Context, ids []int64) (map[int64]*models.Unit, error) {
	units := make(map[int64]*models.Unit, len(ids))
	if len(ids) == 0 {
		return units, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+unitColumns+` FROM Unit_tab WHERE unit_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units[u.ID] = u
	}
	return units, rows.Err()
}

// Members returns a unit's signing roster in member order.
func (r *UnitRepository) Members(ctx context.Context, unitID int64) ([]models.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, unit_id, name, COALESCE(rank, ''), member_type, member_order
		FROM Unit_members
		WHERE unit_id = $1
		ORDER BY member_order, id
	`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unit members: %w", err)
	}
	defer closeRows(rows)

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.UnitID, &m.Name, &m.Rank, &m.MemberType, &m.MemberOrder); err != nil {
			return nil, fmt.Errorf("failed to scan unit member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetProfile resolves the caller's unit including its roster.
func (r *UnitRepository) GetProfile(ctx context.Context, caller models.Caller) (*models.Profile, error) {
	unit, err := r.GetByID(ctx, caller.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, apperrors.NewNotFoundError("unit", strconv.FormatInt(caller.UnitID, 10))
	}
	if unit.Members, err = r.Members(ctx, unit.ID); err != nil {
		return nil, err
	}
	return &models.Profile{User: caller, Unit: unit}, nil
}
