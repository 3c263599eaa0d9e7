package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("clubdb"),
		postgres.WithUsername("club"),
		postgres.WithPassword("club"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func getMigrationsPath(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	return path
}

func TestRun_CreatesSchema(t *testing.T) {
	db := getTestDB(t)

	require.NoError(t, Run(db, getMigrationsPath(t)))

	for _, table := range []string{"accounts", "social_cards", "seasons", "season_fee_records", "attendance_records"} {
		var exists bool
		err := db.QueryRow(`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.Truef(t, exists, "table %s should exist", table)
	}

	var exists bool
	err := db.QueryRow(`SELECT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'seasons_no_overlap'
	)`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "season overlap constraint should exist")

	version, dirty, err := Version(db, getMigrationsPath(t))
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestRun_Idempotent(t *testing.T) {
	db := getTestDB(t)
	path := getMigrationsPath(t)

	require.NoError(t, Run(db, path))
	require.NoError(t, Run(db, path), "running migrations twice should not fail")
}

func TestRun_EmptyPath(t *testing.T) {
	err := Run(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations.Run")
}
