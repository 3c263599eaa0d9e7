// Package notification отправляет участникам чеки об оплате и оповещает
// администратора клуба о платежах, которые не удалось сопоставить.
package notification

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/lib/smtp"
	"github.com/magabrotheeeer/club-membership/internal/metrics"
	"github.com/magabrotheeeer/club-membership/internal/models"
)

var headerSanitizer = strings.NewReplacer("\r", "", "\n", "")

// SenderService превращает платежные уведомления в письма.
type SenderService struct {
	transport  smtp.TransportInterface
	adminEmail string
	log        *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService. Оповещения о несопоставленных платежах уходят на adminEmail.
func NewSenderService(transport smtp.TransportInterface, adminEmail string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport:  transport,
		adminEmail: adminEmail,
		log:        log,
	}
}

// SendPaymentReceipt обрабатывает сообщение из очереди сверенных платежей. Некорректные
// сообщения отбрасываются, чтобы они не доставлялись бесконечно.
func (s *SenderService) SendPaymentReceipt(body []byte) error {
	const op = "notification.SendPaymentReceipt"
	log := s.log.With(slog.String("op", op))

	n, ok := s.decode(log, body)
	if !ok {
		return nil
	}
	if n.Email == "" {
		log.Error("receipt without recipient", slog.String("event_id", n.EventID))
		metrics.NotificationsSent.WithLabelValues(n.Kind, "dropped").Inc()
		return nil
	}

	subject, text := receipt(n)
	if err := s.sendEmail([]string{n.Email}, subject, text); err != nil {
		metrics.NotificationsSent.WithLabelValues(n.Kind, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsSent.WithLabelValues(n.Kind, "sent").Inc()
	return nil
}

// SendUnmatchedAlert обрабатывает сообщение из очереди несопоставленных платежей.
func (s *SenderService) SendUnmatchedAlert(body []byte) error {
	const op = "notification.SendUnmatchedAlert"
	log := s.log.With(slog.String("op", op))

	n, ok := s.decode(log, body)
	if !ok {
		return nil
	}
	if s.adminEmail == "" {
		log.Warn("unmatched payment, no admin address configured",
			slog.String("event_id", n.EventID), slog.String("reason", n.Reason))
		metrics.NotificationsSent.WithLabelValues(n.Kind, "dropped").Inc()
		return nil
	}

	subject := "Unmatched payment " + n.IntentID
	text := fmt.Sprintf("A payment could not be matched automatically.\n\n"+
		"Reason: %s\nEvent: %s\nPayment intent: %s\nReceipt email: %s\nPayment type: %s\nAmount: %s %s\n",
		n.Reason, n.EventID, n.IntentID, n.Email, orNone(string(n.PaymentType)), n.Amount, strings.ToUpper(n.Currency))
	if err := s.sendEmail([]string{s.adminEmail}, subject, text); err != nil {
		metrics.NotificationsSent.WithLabelValues(n.Kind, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsSent.WithLabelValues(n.Kind, "sent").Inc()
	return nil
}

func (s *SenderService) decode(log *slog.Logger, body []byte) (models.PaymentNotification, bool) {
	var n models.PaymentNotification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Error("dropping malformed notification", sl.Err(err))
		metrics.NotificationsSent.WithLabelValues("malformed", "dropped").Inc()
		return n, false
	}
	return n, true
}

func receipt(n models.PaymentNotification) (subject, text string) {
	name := n.FirstName
	if name == "" {
		name = "member"
	}
	amount := n.Amount + " " + strings.ToUpper(n.Currency)
	switch n.Kind {
	case models.NotificationFeePaid:
		return "Fixture fee received for " + n.SeasonName,
			fmt.Sprintf("Hi %s,\n\nWe have received your fixture fee of %s for %s.\nYou are all set to play this season.\n",
				name, amount, n.SeasonName)
	case models.NotificationSocialCardIssued:
		return "Your 10-session social card",
			fmt.Sprintf("Hi %s,\n\nThanks for your payment of %s. A new 10-session social card has been added to your account.\n"+
				"One session is used on your first check-in of each day.\n", name, amount)
	}
	return "Payment received",
		fmt.Sprintf("Hi %s,\n\nWe have received your payment of %s.\n", name, amount)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + headerSanitizer.Replace(from),
		"To: " + headerSanitizer.Replace(strings.Join(to, ", ")),
		"Subject: " + headerSanitizer.Replace(subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		strings.ReplaceAll(bodyText, "\n", "\r\n"),
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
