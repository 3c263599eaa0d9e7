package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/club-membership/internal/migrations"
	"github.com/magabrotheeeer/club-membership/internal/models"
)

// setupTestDatabase запускает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "clubdb",
			"POSTGRES_USER":     "club",
			"POSTGRES_PASSWORD": "club",
		},
		WaitingFor: wait.ForSQL(nat.Port("5432/tcp"), "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://club:club@%s:%s/clubdb?sslmode=disable", host, port.Port())
		}).WithStartupTimeout(3 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://club:club@%s:%s/clubdb?sslmode=disable", host, port.Port())
	storage, err := New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	return storage
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustCreateAccount(t *testing.T, s *Storage, email string, tier models.MembershipType) int64 {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), models.Account{
		Email:          email,
		PasswordHash:   "hash",
		FirstName:      "Test",
		LastName:       "Player",
		Phone:          "0400000000",
		MembershipType: tier,
	})
	require.NoError(t, err)
	return id
}

func mustCreateSeason(t *testing.T, s *Storage, name string, start, end time.Time, fee models.Money) int64 {
	t.Helper()
	id, err := s.CreateSeason(context.Background(), models.Season{
		Name:              name,
		StartDate:         start,
		EndDate:           end,
		FixtureFeeAmount:  fee,
		FixtureFeeDueDate: start.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	return id
}

func countFeeRecords(ctx context.Context, s *Storage, accountID, seasonID int64) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM season_fee_records
		WHERE account_id = $1 AND season_id = $2`, accountID, seasonID).Scan(&n)
	return n, err
}

func getAttendance(ctx context.Context, s *Storage, id int64) (*models.AttendanceRecord, error) {
	var (
		rec      models.AttendanceRecord
		exitTime sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, `SELECT id, account_id, date_of_play, entry_time, exit_time, daily_session_consumed
		FROM attendance_records WHERE id = $1`, id).
		Scan(&rec.ID, &rec.AccountID, &rec.DateOfPlay, &rec.EntryTime, &exitTime, &rec.DailySessionConsumed)
	if err != nil {
		return nil, err
	}
	if exitTime.Valid {
		rec.ExitTime = &exitTime.Time
	}
	return &rec, nil
}
