package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"

	"award-review/internal/apperrors"
	"award-review/internal/models"
)

// DBTX is satisfied by *sql.DB and *sql.Tx so repositories can join a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// applicationTable names the table and columns of one application variant.
type applicationTable struct {
	Name   string
	IDCol  string
	FDSCol string
}

var applicationTables = map[models.ApplicationType]applicationTable{
	models.TypeCitation:     {Name: "Citation_tab", IDCol: "citation_id", FDSCol: "citation_fds"},
	models.TypeAppreciation: {Name: "Appre_tab", IDCol: "appreciation_id", FDSCol: "appre_fds"},
}

func tableFor(t models.ApplicationType) (applicationTable, error) {
	table, ok := applicationTables[t]
	if !ok {
		return applicationTable{}, apperrors.NewValidationError("type", "must be citation or appreciation")
	}
	return table, nil
}

// bindArgs wraps slice arguments so lib/pq sends them as Postgres arrays.
func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case []int64:
			out[i] = pq.Array(v)
		case []string:
			out[i] = pq.Array(v)
		default:
			out[i] = a
		}
	}
	return out
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}
