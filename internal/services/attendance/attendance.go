// Package attendance регистрирует приход и уход и закрывает
// записи, оставшиеся открытыми после конца игрового дня.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/lib/localdate"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/metrics"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

var (
	// ErrAlreadyCheckedIn возвращается, если у аккаунта уже есть открытая запись за сегодня.
	ErrAlreadyCheckedIn = storage.ErrAlreadyCheckedIn
	// ErrNoActiveSocialCard возвращается, если у владельца социальной карты не осталось посещений.
	ErrNoActiveSocialCard = storage.ErrNoActiveSocialCard
	// ErrNotCheckedIn возвращается при уходе без открытой записи за сегодня.
	ErrNotCheckedIn = errors.New("no open attendance record for today")
)

type Repository interface {
	OpenAttendance(ctx context.Context, accountID int64, day, entry time.Time, consumeSession bool) (*models.AttendanceRecord, error)
	CloseAttendance(ctx context.Context, accountID int64, day, exit time.Time) (*models.AttendanceRecord, error)
	CloseOpenAttendance(ctx context.Context, day, exit time.Time) (int64, error)
}

type Service struct {
	repo Repository
	loc  *time.Location
	log  *slog.Logger
	now  func() time.Time
}

// NewService создает новый экземпляр Service. Дни считаются в loc.
func NewService(repo Repository, loc *time.Location, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		loc:  loc,
		log:  log,
		now:  time.Now,
	}
}

// WithClock подменяет часы для времени прихода и ухода.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckIn открывает запись посещаемости аккаунта за сегодня. Первая отметка
// за день владельца социальной карты списывает одно посещение.
func (s *Service) CheckIn(ctx context.Context, account *models.Account) (*models.AttendanceRecord, error) {
	const op = "attendance.CheckIn"
	log := s.log.With(slog.String("op", op), slog.Int64("account_id", account.ID))

	now := s.now().In(s.loc)
	consume := account.MembershipType == models.SocialCardHolder
	rec, err := s.repo.OpenAttendance(ctx, account.ID, localdate.Day(now, s.loc), now, consume)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("checked in", slog.Int64("record_id", rec.ID), slog.Bool("session_consumed", rec.DailySessionConsumed))
	return rec, nil
}

// CheckOut закрывает открытую запись accountID за сегодня.
func (s *Service) CheckOut(ctx context.Context, accountID int64) (*models.AttendanceRecord, error) {
	const op = "attendance.CheckOut"

	now := s.now().In(s.loc)
	rec, err := s.repo.CloseAttendance(ctx, accountID, localdate.Day(now, s.loc), now)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotCheckedIn
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("checked out", slog.String("op", op), slog.Int64("account_id", accountID), slog.Int64("record_id", rec.ID))
	return rec, nil
}

// Cleanup проставляет каждой открытой записи дня day время ухода, равное
// последнему моменту дня, и возвращает число закрытых записей.
func (s *Service) Cleanup(ctx context.Context, day time.Time) (int64, error) {
	const op = "attendance.Cleanup"
	day = localdate.Day(day, s.loc)
	log := s.log.With(slog.String("op", op), slog.String("date", localdate.Format(day)))

	n, err := s.repo.CloseOpenAttendance(ctx, day, localdate.EndOfDay(day, s.loc))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.AttendanceClosed.Add(float64(n))
	if n == 0 {
		log.Info("no open attendance records")
		return 0, nil
	}
	log.Info("closed open attendance records", slog.Int64("count", n))
	return n, nil
}

// CleanupYesterday запускает Cleanup для вчерашнего дня в поясе сервиса.
func (s *Service) CleanupYesterday(ctx context.Context) (int64, error) {
	return s.Cleanup(ctx, localdate.Yesterday(s.now(), s.loc))
}

// RunDaily запускает CleanupYesterday через delay после каждой местной полуночи,
// пока ctx не отменен. Неудачный запуск логируется и повторяется следующей ночью.
func (s *Service) RunDaily(ctx context.Context, delay time.Duration) error {
	const op = "attendance.RunDaily"
	log := s.log.With(slog.String("op", op))

	for {
		now := s.now()
		next := localdate.Day(now, s.loc).AddDate(0, 0, 1).Add(delay)
		log.Info("next attendance cleanup scheduled", slog.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.CleanupYesterday(ctx); err != nil {
			log.Error("scheduled attendance cleanup failed", sl.Err(err))
		}
	}
}
