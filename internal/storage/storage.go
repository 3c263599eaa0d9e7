// Package storage реализует хранилище клуба на PostgreSQL: аккаунты,
// социальные карты, сезоны, записи о взносах и записи посещаемости.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрирует драйвер pgx в database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Доменные ошибки, которые возвращают методы Storage.
var (
	ErrNotFound           = errors.New("record not found")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrSeasonOverlap      = errors.New("season dates overlap an existing season")
	ErrAlreadyCheckedIn   = errors.New("account already checked in today")
	ErrNoActiveSocialCard = errors.New("no active social card with remaining sessions")
)

// dateArg задает формат передачи календарных дат. Запросы приводят его через ::date.
const dateArg = "2006-01-02"

// Storage оборачивает пул соединений PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New открывает пул по storageConnectionString и проверяет доступность базы.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// Close освобождает пул.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции создали схему.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	const op = "storage.CheckDatabaseReady"
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name IN ('accounts', 'social_cards', 'seasons', 'season_fee_records', 'attendance_records')`).Scan(&count)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count != 5 {
		return fmt.Errorf("%s: expected 5 tables, found %d; run migrations first", op, count)
	}
	return nil
}

// Ping сообщает, отвечает ли база данных.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// withTx выполняет fn в транзакции READ COMMITTED и делает commit, если fn вернула nil.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func ctxDone(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgerrcode.UniqueViolation
}

// isUniqueViolationOf сообщает о нарушении уникальности указанного ограничения или индекса.
func isUniqueViolationOf(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
}

func isExclusionViolation(err error) bool {
	return pgErrorCode(err) == pgerrcode.ExclusionViolation
}
