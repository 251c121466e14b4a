package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"award-review/internal/config"
	"award-review/internal/database"
	"award-review/migrations"
)

const (
	testDBName     = "award_review_test"
	testDBUser     = "award_review_test"
	testDBPassword = "award_review_test"
)

// TestDatabase is a migrated PostgreSQL 18 container opened through database.New,
// so tests run on the same DSN, pool and statement timeout settings as the API.
type TestDatabase struct {
	*database.Database
	Config    config.DatabaseConfig
	container *postgres.PostgresContainer
}

// SetupTestDatabase starts the container and applies the embedded migrations.
// The container is terminated when the test ends. Skipped under -short.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	tdb := &TestDatabase{container: container}
	t.Cleanup(func() { tdb.close(t) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}
	tdb.Config = config.DatabaseConfig{
		Host:             host,
		Port:             port.Port(),
		User:             testDBUser,
		Password:         testDBPassword,
		Name:             testDBName,
		SSLMode:          "disable",
		MaxOpenConns:     5,
		MaxIdleConns:     2,
		ConnMaxLifetime:  time.Minute,
		StatementTimeout: 10 * time.Second,
	}

	if tdb.Database, err = database.New(ctx, &tdb.Config); err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.NewMigrationExecutor(tdb.DB).RunMigrations(ctx, migrations.Files); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return tdb
}

// SetupTestEnvironment returns a migrated database seeded with the standard fixtures.
func SetupTestEnvironment(t *testing.T) (*TestDatabase, *Fixtures) {
	t.Helper()
	tdb := SetupTestDatabase(t)
	return tdb, SetupFixtures(t, tdb.DB)
}

func (d *TestDatabase) close(t *testing.T) {
	if d.Database != nil {
		d.Database.Close()
	}
	if err := d.container.Terminate(context.Background()); err != nil {
		t.Errorf("Failed to terminate PostgreSQL container: %v", err)
	}
}
