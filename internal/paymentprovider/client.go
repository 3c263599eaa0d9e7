// Package paymentprovider реализует клиент платежного шлюза на Stripe:
// создает платежные намерения и проверяет события вебхуков.
package paymentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

// ErrInvalidEvent возвращается, если тело вебхука не прошло проверку
// подписи или не декодируется.
var ErrInvalidEvent = errors.New("invalid webhook event")

// ErrNoWebhookSecret возвращает ParseEvent, если у клиента нет
// секрета подписи. С пустым HMAC-ключом прошли бы поддельные события.
var ErrNoWebhookSecret = errors.New("webhook signing secret is not configured")

// Options описывает настройки клиента шлюза.
type Options struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
	// APIURL переопределяет базовый URL Stripe API.
	APIURL string
}

// Client работает со Stripe. Каждый запрос выполняется ровно один раз.
type Client struct {
	sc            *client.API
	webhookSecret string
}

// NewClient создает Client с явным HTTP-таймаутом и без сетевых повторов.
func NewClient(opts Options) *Client {
	httpClient := &http.Client{Timeout: opts.Timeout}
	backendConfig := func() *stripe.BackendConfig {
		cfg := &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		}
		if opts.APIURL != "" {
			cfg.URL = stripe.String(opts.APIURL)
		}
		return cfg
	}

	sc := &client.API{}
	sc.Init(opts.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig()),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig()),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig()),
	})

	return &Client{sc: sc, webhookSecret: opts.WebhookSecret}
}

// CreatePaymentIntent создает намерение с автоматическим выбором способов оплаты для req.
func (c *Client) CreatePaymentIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error) {
	const op = "paymentprovider.CreatePaymentIntent"

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(req.Description),
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := c.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseEvent проверяет signatureHeader секретом вебхука и декодирует
// события платежных намерений. У событий других типов заполнены только ID и Type.
func (c *Client) ParseEvent(payload []byte, signatureHeader string) (*models.PaymentEvent, error) {
	const op = "paymentprovider.ParseEvent"
	if c.webhookSecret == "" {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, ErrNoWebhookSecret)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}

	out := &models.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || event.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}
	out.IntentID = pi.ID
	out.Amount = models.Money(pi.Amount)
	out.Currency = string(pi.Currency)
	out.ReceiptEmail = pi.ReceiptEmail
	out.Description = pi.Description
	out.Metadata = pi.Metadata
	if pi.LatestCharge != nil {
		out.ChargeID = pi.LatestCharge.ID
	}
	return out, nil
}
