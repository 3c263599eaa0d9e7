// Package fixture реализует GET /api/player/fixture_eligibility/.
package fixture

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-membership/internal/http/response"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/eligibility"
)

// Service определяет обязанность платить взнос.
type Service interface {
	Check(ctx context.Context, account *models.Account) (eligibility.Result, error)
}

// Handler обрабатывает проверку обязанности платить взнос.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обязанность платить взнос за матчи
// @Description Сообщает, должен ли пользователь взнос за матчи активного сегодня сезона.
// @Tags Player
// @Produce  json
// @Success 200 {object} eligibility.Result
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Нет активного сезона"
// @Failure 500 {object} response.ErrorResponse
// @Router /player/fixture_eligibility/ [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.player.eligibility"
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

	result, err := h.service.Check(r.Context(), account)
	if errors.Is(err, eligibility.ErrNoActiveSeason) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("No active season found."))
		return
	}
	if err != nil {
		log.Error("eligibility check failed", slog.Int64("account_id", account.ID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	render.JSON(w, r, result)
}
