// Package health реализует GET /healthz.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-membership/internal/http/response"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
)

// Pinger сообщает, доступно ли хранилище.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler сообщает о работоспособности сервиса и доступности хранилища.
type Handler struct {
	log *slog.Logger
	db  Pinger
}

// New создает новый Handler. db может быть nil, тогда проверяется только живость.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{log: log, db: db}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce  json
// @Success 200 {object} map[string]string
// @Failure 503 {object} response.ErrorResponse
// @Router /healthz [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.log.Error("database unreachable", slog.String("op", op), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database unavailable"))
			return
		}
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}
