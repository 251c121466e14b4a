package service

import (
	"context"
	"database/sql"
	"time"

	"award-review/internal/database"
	"award-review/internal/models"
	"award-review/internal/query"
	"award-review/internal/repository"
)

// ApplicationStore persists citations and appreciations.
type ApplicationStore interface {
	GetByID(ctx context.Context, t models.ApplicationType, id int64) (*models.Application, error)
	GetForUpdate(ctx context.Context, t models.ApplicationType, id int64) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, app *models.Application) error
	List(ctx context.Context, t models.ApplicationType, p query.Predicate) ([]*models.Application, error)
	ListAll(ctx context.Context, p query.Predicate) ([]*models.Application, error)
}

// ClarificationStore persists clarification requests.
type ClarificationStore interface {
	Create(ctx context.Context, c *models.Clarification) error
	GetByID(ctx context.Context, id int64) (*models.Clarification, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Clarification, error)
	ByIDs(ctx context.Context, ids []int64) (map[int64]*models.Clarification, error)
	Update(ctx context.Context, c *models.Clarification) error
	PendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Clarification, error)
	CountPending(ctx context.Context) (int, error)
}

// ParameterStore is the parameter master catalog.
type ParameterStore interface {
	ListByAwardType(ctx context.Context, awardType string) ([]models.ParameterMaster, error)
	GetByID(ctx context.Context, id int64) (*models.ParameterMaster, error)
	Create(ctx context.Context, p *models.ParameterMaster) error
	Update(ctx context.Context, p *models.ParameterMaster) error
	Delete(ctx context.Context, id int64) error
	NegativeFlags(ctx context.Context, names []string) (map[string]bool, error)
}

// UnitStore resolves units, rosters and caller profiles.
type UnitStore interface {
	GetByID(ctx context.Context, id int64) (*models.Unit, error)
	SubordinateIDs(ctx context.Context, column, parentName string) ([]int64, error)
	ByIDs(ctx context.Context, ids []int64) (map[int64]*models.Unit, error)
	Members(ctx context.Context, unitID int64) ([]models.Member, error)
	GetProfile(ctx context.Context, caller models.Caller) (*models.Profile, error)
}

// DraftStore persists unsubmitted application documents.
type DraftStore interface {
	Upsert(ctx context.Context, d *models.Draft) error
	Get(ctx context.Context, userID int64, t models.ApplicationType) (*models.Draft, error)
	Delete(ctx context.Context, userID int64, t models.ApplicationType) (bool, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditStore records workflow actions.
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	GetByApplication(ctx context.Context, t models.ApplicationType, id int64) ([]models.AuditLog, error)
}

// Store groups the repositories a service needs. WithinTx runs fn against a Store
// bound to one transaction; nested calls reuse the outer transaction.
type Store interface {
	Applications() ApplicationStore
	Clarifications() ClarificationStore
	Parameters() ParameterStore
	Units() UnitStore
	Drafts() DraftStore
	Audit() AuditStore
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type sqlStore struct {
	db   *sql.DB
	conn repository.DBTX
	inTx bool
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) Store {
	return &sqlStore{db: db, conn: db}
}

func (s *sqlStore) Applications() ApplicationStore {
	return repository.NewApplicationRepository(s.conn)
}

func (s *sqlStore) Clarifications() ClarificationStore {
	return repository.NewClarificationRepository(s.conn)
}

func (s *sqlStore) Parameters() ParameterStore {
	return repository.NewParameterRepository(s.conn)
}

func (s *sqlStore) Units() UnitStore {
	return repository.NewUnitRepository(s.conn)
}

func (s *sqlStore) Drafts() DraftStore {
	return repository.NewDraftRepository(s.conn)
}

func (s *sqlStore) Audit() AuditStore {
	return repository.NewAuditRepository(s.conn)
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&sqlStore{db: s.db, conn: tx, inTx: true})
	})
}
