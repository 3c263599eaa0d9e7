// Package checkin реализует POST /api/attendance/check-in/.
package checkin

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
	"github.com/magabrotheeeer/club-membership/internal/services/attendance"
)

// Service регистрирует приход.
type Service interface {
	CheckIn(ctx context.Context, account *models.Account) (*models.AttendanceRecord, error)
}

// Handler обрабатывает запросы на отметку прихода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметка прихода
// @Description Открывает запись посещаемости за сегодня. Первая отметка за день владельца социальной карты списывает одно посещение.
// @Tags Attendance
// @Produce  json
// @Success 201 {object} models.AttendanceRecord
// @Failure 401 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse "Нет активной социальной карты"
// @Failure 409 {object} response.ErrorResponse "Приход уже отмечен"
// @Failure 500 {object} response.ErrorResponse
// @Router /attendance/check-in/ [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.checkin"
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

	rec, err := h.service.CheckIn(r.Context(), account)
	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("already checked in today"))
		return
	case errors.Is(err, attendance.ErrNoActiveSocialCard):
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, response.Error("no active social card"))
		return
	case err != nil:
		log.Error("check-in failed", slog.Int64("account_id", account.ID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rec)
}
