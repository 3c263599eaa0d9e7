package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Settings описывает почтовый сервер.
type Settings struct {
	Host     string
	Port     string
	User     string
	Password string
}

// Transport открывает STARTTLS-сессии с аутентификацией PLAIN.
type Transport struct {
	settings Settings
	log      *slog.Logger
}

// NewTransport создает Transport для сервера из settings.
func NewTransport(settings Settings, log *slog.Logger) *Transport {
	return &Transport{settings: settings, log: log}
}

// Connect подключается к серверу, переходит на TLS и проходит аутентификацию.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	log := t.log.With(slog.String("op", op), slog.String("host", t.settings.Host))

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(t.settings.Host, t.settings.Port), dialTimeout)
	if err != nil {
		log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("%s: dial: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.settings.Host)
	if err != nil {
		log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: new client: %w", op, err)
	}

	fail := func(stage string, err error) (Client, error) {
		log.Error("smtp "+stage+" failed", sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %s: %w", op, stage, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fail("starttls", fmt.Errorf("server does not support STARTTLS"))
	}
	tlsConfig := &tls.Config{
		ServerName: t.settings.Host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fail("starttls", err)
	}

	auth := smtp.PlainAuth("", t.settings.User, t.settings.Password, t.settings.Host)
	if err = client.Auth(auth); err != nil {
		return fail("auth", err)
	}

	return &smtpClientWrapper{client: client}, nil
}

// GetSMTPUser возвращает адрес, с которого отправляются письма.
func (t *Transport) GetSMTPUser() string {
	return t.settings.User
}

type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error { return w.client.Mail(from) }

func (w *smtpClientWrapper) Rcpt(to string) error { return w.client.Rcpt(to) }

func (w *smtpClientWrapper) Data() (io.WriteCloser, error) { return w.client.Data() }

func (w *smtpClientWrapper) Quit() error { return w.client.Quit() }

func (w *smtpClientWrapper) Close() error { return w.client.Close() }
