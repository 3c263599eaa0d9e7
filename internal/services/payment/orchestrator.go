// Package payment создает платежные намерения для взносов клуба и сверяет
// события вебхуков шлюза с аккаунтами, сезонами и социальными картами.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/metrics"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/season"
)

var (
	// ErrInvalidPaymentType возвращается для неизвестного типа платежа или когда
	// сумма получается нулевой. Шлюз не вызывается.
	ErrInvalidPaymentType = errors.New("could not determine payment amount for the specified type")
	// ErrGateway скрывает от вызывающего собственную ошибку шлюза.
	ErrGateway = errors.New("payment gateway error")
)

// SocialCardPrice задает цену социальной карты на 10 посещений.
const SocialCardPrice models.Money = 5000

const socialCardDescription = "Purchase of 10-Session Social Card"

// Gateway создает платежные намерения.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error)
}

// SeasonFinder находит сезоны.
type SeasonFinder interface {
	Active(ctx context.Context, now time.Time) (*models.Season, error)
	ByID(ctx context.Context, id int64) (*models.Season, error)
}

// Orchestrator превращает тип платежа в намерение в шлюзе.
type Orchestrator struct {
	gateway  Gateway
	seasons  SeasonFinder
	currency string
	log      *slog.Logger
	now      func() time.Time
}

// NewOrchestrator создает Orchestrator, выставляющий платежи в currency.
func NewOrchestrator(gateway Gateway, seasons SeasonFinder, currency string, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:  gateway,
		seasons:  seasons,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

// WithClock подменяет часы для поиска активного сезона.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Resolve сопоставляет paymentType сумму, описание и теги metadata для account.
func (o *Orchestrator) Resolve(ctx context.Context, account *models.Account, paymentType models.PaymentType) (models.IntentRequest, error) {
	req := models.IntentRequest{
		Currency:     o.currency,
		ReceiptEmail: account.Email,
		Metadata: map[string]string{
			models.MetadataPaymentType: string(paymentType),
			models.MetadataAccountID:   strconv.FormatInt(account.ID, 10),
		},
	}

	switch paymentType {
	case models.PaymentTypeFixtureFee:
		active, err := o.seasons.Active(ctx, o.now())
		switch {
		case errors.Is(err, season.ErrNoActiveSeason):
			// Сумма остается нулевой.
		case err != nil:
			return models.IntentRequest{}, err
		default:
			req.Amount = active.FixtureFeeAmount
			req.Description = "Payment for " + active.Name
			req.Metadata[models.MetadataSeasonID] = strconv.FormatInt(active.ID, 10)
		}
	case models.PaymentTypeSocialCardPurchase:
		req.Amount = SocialCardPrice
		req.Description = socialCardDescription
	}

	if req.Amount <= 0 {
		return models.IntentRequest{}, ErrInvalidPaymentType
	}
	return req, nil
}

// CreateIntent разрешает paymentType и создает намерение за одно
// обращение к шлюзу, возвращая его client secret.
func (o *Orchestrator) CreateIntent(ctx context.Context, account *models.Account, paymentType models.PaymentType) (string, error) {
	const op = "payment.CreateIntent"
	log := o.log.With(
		slog.String("op", op),
		slog.Int64("account_id", account.ID),
		slog.String("payment_type", string(paymentType)),
	)

	req, err := o.Resolve(ctx, account, paymentType)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrInvalidPaymentType) {
			outcome = "invalid"
		}
		metrics.PaymentIntents.WithLabelValues(metricType(paymentType), outcome).Inc()
		if outcome == "invalid" {
			return "", err
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	intent, err := o.gateway.CreatePaymentIntent(ctx, req)
	if err != nil {
		log.Error("gateway rejected payment intent", sl.Err(err))
		metrics.PaymentIntents.WithLabelValues(metricType(paymentType), "gateway_error").Inc()
		return "", fmt.Errorf("%s: %w", op, ErrGateway)
	}

	log.Info("payment intent created",
		slog.String("intent_id", intent.ID),
		slog.String("amount", req.Amount.String()),
	)
	metrics.PaymentIntents.WithLabelValues(metricType(paymentType), "created").Inc()
	return intent.ClientSecret, nil
}

// metricType ограничивает кардинальность метки при произвольном вводе клиента.
func metricType(t models.PaymentType) string {
	switch t {
	case models.PaymentTypeFixtureFee, models.PaymentTypeSocialCardPurchase:
		return string(t)
	}
	return "unknown"
}
