// Package checkout реализует POST /api/attendance/check-out/.
package checkout

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

// Service регистрирует уход.
type Service interface {
	CheckOut(ctx context.Context, accountID int64) (*models.AttendanceRecord, error)
}

// Handler обрабатывает запросы на отметку ухода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметка ухода
// @Description Проставляет время ухода в открытой записи посещаемости за сегодня.
// @Tags Attendance
// @Produce  json
// @Success 200 {object} models.AttendanceRecord
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Приход не отмечен"
// @Failure 500 {object} response.ErrorResponse
// @Router /attendance/check-out/ [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.attendance.checkout"
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

	rec, err := h.service.CheckOut(r.Context(), account.ID)
	if errors.Is(err, attendance.ErrNotCheckedIn) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("no open check-in for today"))
		return
	}
	if err != nil {
		log.Error("check-out failed", slog.Int64("account_id", account.ID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, rec)
}
