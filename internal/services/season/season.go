// Package season находит Season, содержащий календарную дату, с
// необязательным кэшем в Redis по местной дате.
package season

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/lib/localdate"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

// ErrNoActiveSeason возвращается, если ни один Season не содержит запрошенный день.
var ErrNoActiveSeason = errors.New("no active season found")

// Repository описывает хранилище сезонов.
type Repository interface {
	GetSeasonForDate(ctx context.Context, day time.Time) (*models.Season, error)
	GetSeasonByID(ctx context.Context, id int64) (*models.Season, error)
	CreateSeason(ctx context.Context, s models.Season) (int64, error)
	ListSeasons(ctx context.Context) ([]models.Season, error)
}

// Cache хранит JSON-значения. nil Cache отключает кэширование.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service ищет сезоны в часовом поясе клуба.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	loc   *time.Location
	log   *slog.Logger
}

// NewService создает новый экземпляр Service. cache может быть nil.
func NewService(repo Repository, cache Cache, ttl time.Duration, loc *time.Location, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, loc: loc, log: log}
}

// CacheKey возвращает ключ кэша для поиска сезона на day.
func CacheKey(day time.Time) string {
	return "season:active:" + localdate.Format(day)
}

// Active возвращает Season, содержащий местную календарную дату now.
func (s *Service) Active(ctx context.Context, now time.Time) (*models.Season, error) {
	return s.ForDate(ctx, localdate.Day(now, s.loc))
}

// ForDate возвращает Season, содержащий day. При сбоях кэша читает из хранилища.
func (s *Service) ForDate(ctx context.Context, day time.Time) (*models.Season, error) {
	const op = "season.ForDate"
	log := s.log.With(slog.String("op", op), slog.String("day", localdate.Format(day)))
	key := CacheKey(day)

	if s.cache != nil {
		var cached models.Season
		found, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			log.Warn("season cache read failed", sl.Err(err))
		case found && cached.Contains(day):
			return &cached, nil
		case found:
			log.Warn("cached season does not cover day, reloading", slog.Int64("season_id", cached.ID))
		}
	}

	found, err := s.repo.GetSeasonForDate(ctx, day)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveSeason
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, found, s.ttl); err != nil {
			log.Warn("season cache write failed", sl.Err(err))
		}
	}
	return found, nil
}

// ByID возвращает сезон по id или ErrNoActiveSeason, если его нет.
func (s *Service) ByID(ctx context.Context, id int64) (*models.Season, error) {
	const op = "season.ByID"
	found, err := s.repo.GetSeasonByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActiveSeason
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return found, nil
}

// Create сохраняет новый сезон и сбрасывает закэшированный сезон на сегодня.
func (s *Service) Create(ctx context.Context, season models.Season, now time.Time) (int64, error) {
	const op = "season.Create"
	if season.Name == "" {
		return 0, fmt.Errorf("%s: name is required", op)
	}
	if season.EndDate.Before(season.StartDate) {
		return 0, fmt.Errorf("%s: end date %s is before start date %s", op,
			localdate.Format(season.EndDate), localdate.Format(season.StartDate))
	}
	if season.FixtureFeeAmount < 0 {
		return 0, fmt.Errorf("%s: fixture fee must not be negative", op)
	}

	id, err := s.repo.CreateSeason(ctx, season)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		key := CacheKey(localdate.Day(now, s.loc))
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("season cache invalidation failed", slog.String("op", op), sl.Err(err))
		}
	}
	return id, nil
}

// List возвращает все сезоны, упорядоченные по дате начала.
func (s *Service) List(ctx context.Context) ([]models.Season, error) {
	const op = "season.List"
	seasons, err := s.repo.ListSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return seasons, nil
}
