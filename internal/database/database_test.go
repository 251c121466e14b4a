package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

var testMigrations = fstest.MapFS{
	"001_initial_schema.up.sql":   {Data: []byte("CREATE TABLE a (id INT);")},
	"001_initial_schema.down.sql": {Data: []byte("DROP TABLE a;")},
	"002_add_index.up.sql":        {Data: []byte("CREATE INDEX a_id ON a (id);")},
	"003_orphan.down.sql":         {Data: []byte("SELECT 1;")},
	"README.md":                   {Data: []byte("ignored")},
}

func TestReadMigrations(t *testing.T) {
	migrations, err := ReadMigrations(testMigrations)
	if err != nil {
		t.Fatalf("ReadMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	first := migrations[0]
	if first.Version != "001" || first.Title != "initial schema" || first.DownSQL == "" || first.Checksum == "" {
		t.Errorf("first migration = %+v", first)
	}
	if migrations[1].Version != "002" {
		t.Errorf("migrations not sorted: %s", migrations[1].Version)
	}
}

func TestValidateChecksums(t *testing.T) {
	migrations, _ := ReadMigrations(testMigrations)

	if err := ValidateChecksums(migrations, map[string]string{"001": migrations[0].Checksum}); err != nil {
		t.Errorf("unchanged migration rejected: %v", err)
	}
	if err := ValidateChecksums(migrations, map[string]string{"001": ""}); err != nil {
		t.Errorf("migration without recorded checksum rejected: %v", err)
	}
	err := ValidateChecksums(migrations, map[string]string{"001": "deadbeef"})
	if err == nil || !strings.Contains(err.Error(), "Migration 001") {
		t.Errorf("expected a checksum mismatch, got %v", err)
	}
}

func TestRunMigrations_AppliesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	migrations, _ := ReadMigrations(testMigrations)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version").WillReturnRows(
		sqlmock.NewRows([]string{"version", "checksum"}).AddRow("001", migrations[0].Checksum),
	)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX a_id").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("002", "add index", migrations[1].Checksum).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := NewMigrationExecutor(db).RunMigrations(context.Background(), testMigrations); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE t").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE t SET x = 1")
		return err
	})
	if err != nil {
		t.Fatalf("commit path: %v", err)
	}

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
