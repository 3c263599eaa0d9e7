// Package register реализует POST /api/auth/signup/.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/club-membership/internal/http/response"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/auth"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

// Request описывает тело запроса на регистрацию.
type Request struct {
	FirstName string  `json:"first_name" validate:"required,max=150"`
	LastName  string  `json:"last_name" validate:"required,max=150"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	Phone     string  `json:"phone" validate:"required,max=20"`
	DOB       *string `json:"dob,omitempty" example:"1990-04-21"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Password2 string  `json:"password2" validate:"required"`
}

// Response возвращается при успешной регистрации.
type Response struct {
	Token string             `json:"token"`
	User  models.AccountView `json:"user"`
}

// Service регистрирует аккаунты.
type Service interface {
	Register(ctx context.Context, in auth.SignupInput) (string, *models.Account, error)
}

// Handler обрабатывает запросы на регистрацию.
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
// @Summary Регистрация пользователя
// @Description Создает аккаунт GENERIC_USER и возвращает для него bearer-токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные для регистрации"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ошибки полей, несовпадение паролей или занятый email"
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/signup/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		log.Error("validator failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	in := auth.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Password2: req.Password2,
	}
	if req.DOB != nil && *req.DOB != "" {
		dob, err := time.Parse(models.DateLayout, *req.DOB)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fields(map[string]string{
				"dob": "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.",
			}))
			return
		}
		in.DOB = &dob
	}

	token, account, err := h.service.Register(r.Context(), in)
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fields(map[string]string{"password": "Password fields didn't match."}))
		return
	case errors.Is(err, storage.ErrEmailTaken):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fields(map[string]string{"email": "user with this email already exists."}))
		return
	case err != nil:
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register account"))
		return
	}

	log.Info("account registered", slog.Int64("account_id", account.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{Token: token, User: account.View()})
}
