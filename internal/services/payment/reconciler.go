package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/metrics"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/season"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

// EventPaymentIntentSucceeded является единственным сверяемым типом события.
const EventPaymentIntentSucceeded = "payment_intent.succeeded"

// ErrMissingReceiptEmail возвращается для успешного намерения без email для чека.
var ErrMissingReceiptEmail = errors.New("payment event has no receipt email")

// Outcome описывает, что сверка сделала с событием.
type Outcome string

// Результаты сверки.
const (
	OutcomeIgnored          Outcome = "ignored"
	OutcomeReconciled       Outcome = "reconciled"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeUnmatchedAccount Outcome = "unmatched_account"
	OutcomeUnmatchedSeason  Outcome = "unmatched_season"
	OutcomeUntagged         Outcome = "untagged"
)

// Matched сообщает, было ли событие применено к локальному состоянию.
func (o Outcome) Matched() bool {
	return o == OutcomeReconciled || o == OutcomeDuplicate
}

// Repository описывает хранилище для Reconciler.
type Repository interface {
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	MarkFeePaid(ctx context.Context, accountID, seasonID int64, chargeRef string) (bool, error)
	IssueSocialCard(ctx context.Context, card models.SocialCard) (bool, error)
}

// Publisher отправляет платежные уведомления. nil Publisher их отключает.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Reconciler применяет проверенные платежные события к хранилищу. Каждая запись
// является идемпотентным upsert, повторные события приводят к тому же состоянию.
type Reconciler struct {
	repo      Repository
	seasons   SeasonFinder
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewReconciler создает новый экземпляр Reconciler. publisher может быть nil.
func NewReconciler(repo Repository, seasons SeasonFinder, publisher Publisher, log *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:      repo,
		seasons:   seasons,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// WithClock подменяет часы для запасного поиска активного сезона.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// HandleEvent сверяет ev. Ошибками возвращаются только сбои хранилища
// и ErrMissingReceiptEmail. О несопоставленных событиях сообщают
// Outcome, логи, метрики и уведомление "unmatched".
func (r *Reconciler) HandleEvent(ctx context.Context, ev *models.PaymentEvent) (Outcome, error) {
	const op = "payment.HandleEvent"
	log := r.log.With(
		slog.String("op", op),
		slog.String("event_id", ev.ID),
		slog.String("event_type", ev.Type),
		slog.String("intent_id", ev.IntentID),
	)

	outcome, err := r.reconcile(ctx, log, ev)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "error").Inc()
		return outcome, err
	}
	metrics.WebhookEvents.WithLabelValues(ev.Type, string(outcome)).Inc()
	return outcome, nil
}

func (r *Reconciler) reconcile(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent) (Outcome, error) {
	const op = "payment.HandleEvent"
	if ev.Type != EventPaymentIntentSucceeded {
		log.Debug("event type not handled")
		return OutcomeIgnored, nil
	}
	if ev.ReceiptEmail == "" {
		log.Warn("succeeded intent without receipt email")
		return "", ErrMissingReceiptEmail
	}

	account, err := r.repo.GetAccountByEmail(ctx, ev.ReceiptEmail)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("no account for payment receipt email", slog.String("email", ev.ReceiptEmail))
		r.publishUnmatched(ctx, log, ev, "no account with this email")
		return OutcomeUnmatchedAccount, nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	log = log.With(slog.Int64("account_id", account.ID))
	if tagged := ev.Metadata[models.MetadataAccountID]; tagged != "" && tagged != strconv.FormatInt(account.ID, 10) {
		log.Warn("account tag differs from receipt email owner", slog.String("tagged_account_id", tagged))
	}

	switch models.PaymentType(ev.Metadata[models.MetadataPaymentType]) {
	case models.PaymentTypeFixtureFee:
		return r.reconcileFixtureFee(ctx, log, ev, account)
	case models.PaymentTypeSocialCardPurchase:
		return r.reconcileSocialCard(ctx, log, ev, account)
	default:
		log.Warn("payment has no known payment type tag",
			slog.String("payment_type", ev.Metadata[models.MetadataPaymentType]),
			slog.String("description", ev.Description))
		r.publishUnmatched(ctx, log, ev, "payment type tag missing or unknown")
		return OutcomeUntagged, nil
	}
}

func (r *Reconciler) reconcileFixtureFee(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent, account *models.Account) (Outcome, error) {
	const op = "payment.reconcileFixtureFee"

	target, err := r.attributedSeason(ctx, ev)
	if errors.Is(err, season.ErrNoActiveSeason) {
		log.Warn("no season to attribute fixture fee to", slog.String("season_id", ev.Metadata[models.MetadataSeasonID]))
		r.publishUnmatched(ctx, log, ev, "no season to attribute the fixture fee to")
		return OutcomeUnmatchedSeason, nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	changed, err := r.repo.MarkFeePaid(ctx, account.ID, target.ID, chargeRef(ev))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	log.Info("fixture fee marked paid", slog.Int64("season_id", target.ID), slog.Bool("changed", changed))
	if !changed {
		return OutcomeDuplicate, nil
	}

	r.publish(ctx, log, rabbitmq.RoutingKeyReconciled, models.PaymentNotification{
		Kind:        models.NotificationFeePaid,
		EventID:     ev.ID,
		IntentID:    ev.IntentID,
		Email:       account.Email,
		FirstName:   account.FirstName,
		PaymentType: models.PaymentTypeFixtureFee,
		SeasonName:  target.Name,
		Amount:      ev.Amount.String(),
		Currency:    ev.Currency,
	})
	return OutcomeReconciled, nil
}

// attributedSeason берет сезон из тега, поставленного при создании намерения,
// а для намерений без тега берет сезон, активный сейчас.
func (r *Reconciler) attributedSeason(ctx context.Context, ev *models.PaymentEvent) (*models.Season, error) {
	raw := ev.Metadata[models.MetadataSeasonID]
	if raw == "" {
		return r.seasons.Active(ctx, r.now())
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, season.ErrNoActiveSeason
	}
	return r.seasons.ByID(ctx, id)
}

func (r *Reconciler) reconcileSocialCard(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent, account *models.Account) (Outcome, error) {
	const op = "payment.reconcileSocialCard"

	issued, err := r.repo.IssueSocialCard(ctx, models.NewSocialCard(account.ID, ev.IntentID))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	log.Info("social card reconciled", slog.Bool("issued", issued))
	if !issued {
		return OutcomeDuplicate, nil
	}

	r.publish(ctx, log, rabbitmq.RoutingKeyReconciled, models.PaymentNotification{
		Kind:        models.NotificationSocialCardIssued,
		EventID:     ev.ID,
		IntentID:    ev.IntentID,
		Email:       account.Email,
		FirstName:   account.FirstName,
		PaymentType: models.PaymentTypeSocialCardPurchase,
		Amount:      ev.Amount.String(),
		Currency:    ev.Currency,
	})
	return OutcomeReconciled, nil
}

func (r *Reconciler) publishUnmatched(ctx context.Context, log *slog.Logger, ev *models.PaymentEvent, reason string) {
	r.publish(ctx, log, rabbitmq.RoutingKeyUnmatched, models.PaymentNotification{
		Kind:        models.NotificationUnmatched,
		EventID:     ev.ID,
		IntentID:    ev.IntentID,
		Email:       ev.ReceiptEmail,
		PaymentType: models.PaymentType(ev.Metadata[models.MetadataPaymentType]),
		Amount:      ev.Amount.String(),
		Currency:    ev.Currency,
		Reason:      reason,
	})
}

// publish не прерывает сверку, ответ вебхука от него не зависит.
func (r *Reconciler) publish(ctx context.Context, log *slog.Logger, routingKey string, n models.PaymentNotification) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, routingKey, n); err != nil {
		log.Error("failed to publish payment notification", slog.String("routing_key", routingKey), sl.Err(err))
	}
}

func chargeRef(ev *models.PaymentEvent) string {
	if ev.ChargeID != "" {
		return ev.ChargeID
	}
	return ev.IntentID
}
