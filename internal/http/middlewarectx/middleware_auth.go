// Package middlewarectx содержит HTTP middleware API клуба:
// аутентификацию по bearer-токену, ограничение частоты и проверку хостов.
//
// JWTMiddleware находит по заголовку Authorization активный аккаунт и
// кладет его в контекст запроса. Обработчики достают его через AccountFrom.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-membership/internal/http/response"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/models"
)

// Key является типом ключей контекста, которые задает этот пакет.
type Key string

// AccountKey хранит аутентифицированный *models.Account.
const AccountKey Key = "account"

// Authenticator находит аккаунт по bearer-токену.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

// JWTMiddleware отклоняет с 401 запросы без валидного bearer-токена.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Debug("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication credentials were not provided"))
				return
			}

			account, err := auth.Authenticate(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Info("token rejected", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFrom возвращает аккаунт, сохраненный JWTMiddleware.
func AccountFrom(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*models.Account)
	return account, ok && account != nil
}

// WithAccount возвращает ctx с аккаунтом, как это делает JWTMiddleware.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}
