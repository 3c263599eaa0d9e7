// Package paymentcreate реализует POST /api/payments/create-intent/.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/club-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-membership/internal/http/response"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/payment"
)

// Request определяет, за что производится оплата.
type Request struct {
	PaymentType string `json:"payment_type" validate:"required" example:"fixture_fee"`
}

// Response содержит секрет, которым клиент подтверждает платеж.
type Response struct {
	ClientSecret string `json:"client_secret"`
}

// Service создает платежные намерения.
type Service interface {
	CreateIntent(ctx context.Context, account *models.Account, paymentType models.PaymentType) (string, error)
}

// Handler обрабатывает создание платежных намерений.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: response.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Создание платежного намерения
// @Description Создает в шлюзе платежное намерение на взнос за матчи активного сезона или на социальную карту на 10 посещений.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "fixture_fee или social_card_purchase"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Тип платежа не указан или неизвестен"
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse "Ошибка платежного шлюза"
// @Router /payments/create-intent/ [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	account, ok := middlewarectx.AccountFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		log.Error("validator failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	secret, err := h.service.CreateIntent(r.Context(), account, models.PaymentType(req.PaymentType))
	switch {
	case errors.Is(err, payment.ErrInvalidPaymentType):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Could not determine payment amount for the specified type."))
		return
	case errors.Is(err, payment.ErrGateway):
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("payment gateway error"))
		return
	case err != nil:
		log.Error("failed to create payment intent", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, Response{ClientSecret: secret})
}
