// Package eligibility решает, должен ли аккаунт взнос за матчи
// активного сегодня сезона.
package eligibility

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/season"
)

// ErrNoActiveSeason возвращается для аккаунтов не Gold, если сегодня нет сезона.
var ErrNoActiveSeason = season.ErrNoActiveSeason

const goldReason = "Gold Annual Members have fees included."

// Result описывает обязанность одного аккаунта платить взнос.
type Result struct {
	IsFeeOwed  bool   `json:"is_fee_owed"`
	Reason     string `json:"reason,omitempty"`
	SeasonName string `json:"season_name,omitempty"`
	AmountOwed string `json:"amount_owed,omitempty"`
	DueDate    string `json:"due_date,omitempty"`
}

// Evaluate вычисляет обязанность платить для аккаунта не Gold по активному
// сезону и наличию записи PAID о взносе за него.
func Evaluate(active models.Season, paid bool) Result {
	if paid {
		return Result{IsFeeOwed: false, SeasonName: active.Name}
	}
	return Result{
		IsFeeOwed:  true,
		AmountOwed: active.FixtureFeeAmount.String(),
		SeasonName: active.Name,
		DueDate:    active.FixtureFeeDueDate.Format(models.DateLayout),
	}
}

// SeasonFinder находит сезон, активный в заданный момент.
type SeasonFinder interface {
	Active(ctx context.Context, now time.Time) (*models.Season, error)
}

// FeeRepository сообщает, оплачен ли взнос.
type FeeRepository interface {
	IsFeePaid(ctx context.Context, accountID, seasonID int64) (bool, error)
}

// Service проверяет обязанность платить по хранилищу. Ничего не записывает.
type Service struct {
	seasons SeasonFinder
	fees    FeeRepository
	log     *slog.Logger
	now     func() time.Time
}

// NewService создает новый экземпляр Service с системными часами.
func NewService(seasons SeasonFinder, fees FeeRepository, log *slog.Logger) *Service {
	return &Service{seasons: seasons, fees: fees, log: log, now: time.Now}
}

// WithClock подменяет часы для тестов и пакетных запусков.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Check возвращает обязанность account платить взнос на сегодня.
func (s *Service) Check(ctx context.Context, account *models.Account) (Result, error) {
	const op = "eligibility.Check"
	if account.MembershipType == models.GoldAnnual {
		return Result{IsFeeOwed: false, Reason: goldReason}, nil
	}

	active, err := s.seasons.Active(ctx, s.now())
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	paid, err := s.fees.IsFeePaid(ctx, account.ID, active.ID)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("eligibility checked",
		slog.String("op", op),
		slog.Int64("account_id", account.ID),
		slog.Int64("season_id", active.ID),
		slog.Bool("paid", paid),
	)
	return Evaluate(*active, paid), nil
}
