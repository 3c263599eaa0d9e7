// Package sender собирает отправщик уведомлений, превращающий платежные события
// из RabbitMQ в письма.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/club-membership/internal/config"
	"github.com/magabrotheeeer/club-membership/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/lib/smtp"
	"github.com/magabrotheeeer/club-membership/internal/services/notification"
)

const (
	queueReconciled = "payments.reconciled"
	queueUnmatched  = "payments.unmatched"
)

// App представляет процесс отправки уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *notification.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет платежные очереди.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("RABBITMQ_URL is not set"))
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ExchangePayments, rabbitmq.PaymentQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(smtp.Settings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
	}, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: notification.NewSenderService(transport, cfg.SMTP.AdminEmail, logger),
		logger:        logger,
	}, nil
}

// Run читает обе платежные очереди до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, queueReconciled, a.senderService.SendPaymentReceipt, a.logger)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", queueReconciled), sl.Err(err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, queueUnmatched, a.senderService.SendUnmatchedAlert, a.logger)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", queueUnmatched), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender shutting down")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
