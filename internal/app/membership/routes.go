package membership

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/club-membership/internal/config"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/attendance/checkin"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/attendance/checkout"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/health"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/player/fixture"
	"github.com/magabrotheeeer/club-membership/internal/http/handlers/player/profile"
	"github.com/magabrotheeeer/club-membership/internal/http/middlewarectx"
)

// AuthService нужен обработчикам аутентификации и JWT middleware.
type AuthService interface {
	register.Service
	login.Service
	middlewarectx.Authenticator
}

// Dependencies содержит сервисы, стоящие за маршрутами.
type Dependencies struct {
	Auth         AuthService
	Eligibility  fixture.Service
	Orchestrator paymentcreate.Service
	Reconciler   paymentwebhook.Reconciler
	EventParser  paymentwebhook.EventParser
	Attendance   interface {
		checkin.Service
		checkout.Service
	}
	DB health.Pinger
}

// RegisterRoutes регистрирует все маршруты API в r.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, deps Dependencies) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.AllowedHosts(cfg.AllowedHosts, logger),
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup/", register.New(logger, deps.Auth).ServeHTTP)
		r.Post("/auth/login/", login.New(logger, deps.Auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst, logger))
			r.Use(middlewarectx.JWTMiddleware(deps.Auth, logger))
			r.Get("/player/fixture_eligibility/", fixture.New(logger, deps.Eligibility).ServeHTTP)
			r.Get("/player/profile/", profile.New().ServeHTTP)
			r.Post("/payments/create-intent/", paymentcreate.New(logger, deps.Orchestrator).ServeHTTP)
			r.Post("/attendance/check-in/", checkin.New(logger, deps.Attendance).ServeHTTP)
			r.Post("/attendance/check-out/", checkout.New(logger, deps.Attendance).ServeHTTP)
		})

		r.Post("/stripe/webhook/", paymentwebhook.New(logger, deps.EventParser, deps.Reconciler).ServeHTTP)
	})

	r.Get("/healthz", health.New(logger, deps.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
