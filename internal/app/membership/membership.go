// Package membership собирает HTTP API клуба.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/club-membership/internal/cache"
	"github.com/magabrotheeeer/club-membership/internal/config"
	"github.com/magabrotheeeer/club-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/club-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/migrations"
	"github.com/magabrotheeeer/club-membership/internal/paymentprovider"
	"github.com/magabrotheeeer/club-membership/internal/services/attendance"
	"github.com/magabrotheeeer/club-membership/internal/services/auth"
	"github.com/magabrotheeeer/club-membership/internal/services/eligibility"
	"github.com/magabrotheeeer/club-membership/internal/services/payment"
	"github.com/magabrotheeeer/club-membership/internal/services/season"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App представляет процесс HTTP API.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилище, кэш и брокер, применяет миграции и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "membership.New"

	db, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.CheckDatabaseReady(ctx); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var seasonCache season.Cache
	if cfg.Redis.Address != "" {
		c, err := cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, season cache disabled", sl.Err(err))
		} else {
			app.cache = c
			seasonCache = c
		}
	}

	var publisher payment.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ExchangePayments, rabbitmq.PaymentQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch = ch
		publisher = rabbitmq.NewPublisher(ch, rabbitmq.ExchangePayments)
	} else {
		logger.Info("RABBITMQ_URL not set, payment notifications disabled")
	}

	loc := cfg.Location()
	gateway := paymentprovider.NewClient(paymentprovider.Options{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Timeout:       cfg.Stripe.Timeout,
		APIURL:        cfg.Stripe.APIURL,
	})
	seasons := season.NewService(db, seasonCache, cfg.Redis.SeasonTTL, loc, logger)

	deps := Dependencies{
		Auth:         auth.NewService(db, jwt.NewJWTMaker(cfg.SecretKey, cfg.JWTToken.TokenTTL), logger),
		Eligibility:  eligibility.NewService(seasons, db, logger),
		Orchestrator: payment.NewOrchestrator(gateway, seasons, cfg.Stripe.Currency, logger),
		Reconciler:   payment.NewReconciler(db, seasons, publisher, logger),
		EventParser:  gateway,
		Attendance:   attendance.NewService(db, loc, logger),
		DB:           db,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, deps)

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
