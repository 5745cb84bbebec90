package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/USSTM/doc-gateway/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDatabase wraps a real PostgreSQL database for testing
type TestDatabase struct {
	*database.Database
	container testcontainers.Container
}

// NewTestDatabase creates a new test database using testcontainers
func NewTestDatabase(t *testing.T) *TestDatabase {
	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
				wait.ForListeningPort("5432/tcp").
					WithStartupTimeout(30*time.Second),
			),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err, "Failed to create connection pool")

	require.NoError(t, pool.Ping(ctx), "Failed to ping database")

	return &TestDatabase{
		Database:  database.FromPool(pool),
		container: postgresContainer,
	}
}

// RunMigrations applies the embedded goose migrations, seed data included
func (tdb *TestDatabase) RunMigrations(t *testing.T) {
	require.NoError(t, tdb.Migrate(), "Failed to run goose migrations")
}

// Cleanup closes the database connection and terminates the container
func (tdb *TestDatabase) Cleanup() {
	tdb.Close()
	_ = tdb.container.Terminate(context.Background())
}

// CleanupDatabase truncates runtime tables for test isolation. Seeded
// roles, permissions and grants are kept.
func (tdb *TestDatabase) CleanupDatabase(t *testing.T) {
	ctx := context.Background()

	for _, table := range []string{"documents", "users"} {
		_, err := tdb.Pool().Exec(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE")
		if err != nil {
			t.Logf("Failed to truncate table %s: %v", table, err)
		}
	}
}
