package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

const seasonColumns = `id, name, start_date, end_date, (fixture_fee_amount * 100)::BIGINT, fixture_fee_due_date`

// CreateSeason добавляет сезон и возвращает его id.
// ErrSeasonOverlap возвращается, если его даты пересекаются с существующим сезоном.
func (s *Storage) CreateSeason(ctx context.Context, season models.Season) (int64, error) {
	const op = "storage.CreateSeason"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO seasons (name, start_date, end_date, fixture_fee_amount, fixture_fee_due_date)
			  VALUES ($1, $2::date, $3::date, $4::numeric, $5::date)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		season.Name, season.StartDate.Format(dateArg), season.EndDate.Format(dateArg),
		season.FixtureFeeAmount.String(), season.FixtureFeeDueDate.Format(dateArg)).Scan(&id)
	if err != nil {
		if isExclusionViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrSeasonOverlap)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetSeasonForDate возвращает сезон, диапазон дат которого включает day.
func (s *Storage) GetSeasonForDate(ctx context.Context, day time.Time) (*models.Season, error) {
	const op = "storage.GetSeasonForDate"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, `SELECT `+seasonColumns+` FROM seasons
		WHERE $1::date BETWEEN start_date AND end_date`, day.Format(dateArg))
	season, err := scanSeason(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return season, nil
}

// GetSeasonByID возвращает сезон по id.
func (s *Storage) GetSeasonByID(ctx context.Context, id int64) (*models.Season, error) {
	const op = "storage.GetSeasonByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	row := s.DB.QueryRowContext(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = $1`, id)
	season, err := scanSeason(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return season, nil
}

// ListSeasons возвращает все сезоны, упорядоченные по дате начала.
func (s *Storage) ListSeasons(ctx context.Context) ([]models.Season, error) {
	const op = "storage.ListSeasons"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+seasonColumns+` FROM seasons ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var seasons []models.Season
	for rows.Next() {
		var season models.Season
		var cents int64
		if err := rows.Scan(&season.ID, &season.Name, &season.StartDate, &season.EndDate,
			&cents, &season.FixtureFeeDueDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		season.FixtureFeeAmount = models.Money(cents)
		seasons = append(seasons, season)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return seasons, nil
}

func scanSeason(row *sql.Row) (*models.Season, error) {
	var season models.Season
	var cents int64
	err := row.Scan(&season.ID, &season.Name, &season.StartDate, &season.EndDate,
		&cents, &season.FixtureFeeDueDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	season.FixtureFeeAmount = models.Money(cents)
	return &season, nil
}
