// Package paymentwebhook реализует POST /api/stripe/webhook/.
package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-membership/internal/http/response"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/payment"
)

// SignatureHeader содержит подпись события от шлюза.
const SignatureHeader = "Stripe-Signature"

const maxBodyBytes = 65536

// EventParser проверяет и декодирует подписанное событие.
type EventParser interface {
	ParseEvent(payload []byte, signatureHeader string) (*models.PaymentEvent, error)
}

// Reconciler применяет проверенное событие.
type Reconciler interface {
	HandleEvent(ctx context.Context, ev *models.PaymentEvent) (payment.Outcome, error)
}

// Handler обрабатывает вебхуки шлюза.
type Handler struct {
	log        *slog.Logger
	parser     EventParser
	reconciler Reconciler
}

// New создает новый Handler.
func New(log *slog.Logger, parser EventParser, reconciler Reconciler) *Handler {
	return &Handler{
		log:        log,
		parser:     parser,
		reconciler: reconciler,
	}
}

// Response подтверждает получение проверенного события.
type Response struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

// ServeHTTP godoc
// @Summary Вебхук платежного шлюза
// @Description Проверяет заголовок Stripe-Signature и сверяет события payment_intent.succeeded. На каждое проверенное событие отвечает 200, даже если оно не сопоставлено.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректное тело, подпись или нет email для чека"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища, шлюз повторит отправку"
// @Router /stripe/webhook/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	ev, err := h.parser.ParseEvent(payload, r.Header.Get(SignatureHeader))
	if err != nil {
		log.Warn("webhook rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload or signature"))
		return
	}

	outcome, err := h.reconciler.HandleEvent(r.Context(), ev)
	if errors.Is(err, payment.ErrMissingReceiptEmail) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("receipt email missing"))
		return
	}
	if err != nil {
		log.Error("failed to reconcile event", slog.String("event_id", ev.ID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, Response{Received: true, Outcome: string(outcome)})
}
