// Package profile реализует GET /api/player/profile/.
package profile

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-membership/internal/http/response"
)

// Handler возвращает аутентифицированный аккаунт.
type Handler struct{}

// New создает новый Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Профиль игрока
// @Tags Player
// @Produce  json
// @Success 200 {object} models.AccountView
// @Failure 401 {object} response.ErrorResponse
// @Router /player/profile/ [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	account, ok := middlewarectx.AccountFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	render.JSON(w, r, account.View())
}
