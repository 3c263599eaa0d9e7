package notification_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/club-membership/internal/lib/smtp"
	"github.com/magabrotheeeer/club-membership/internal/services/notification"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

// recordingWriter сохраняет записанное, чтобы письмо можно было проверить.
type recordingWriter struct {
	written []byte
	closed  bool
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.written = append(w.written, p...)
	return len(p), nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expectDelivery(tr *MockTransport, to string) *recordingWriter {
	client := new(MockSMTPClient)
	w := new(recordingWriter)
	tr.On("GetSMTPUser").Return("club@example.com")
	tr.On("Connect").Return(client, nil).Once()
	client.On("Mail", "club@example.com").Return(nil).Once()
	client.On("Rcpt", to).Return(nil).Once()
	client.On("Data").Return(w, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return w
}

func TestSenderService_SendPaymentReceipt(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMocks   func(tr *MockTransport) *recordingWriter
		wantErr      string
		wantContains []string
	}{
		{
			name: "fixture fee receipt",
			body: `{"kind":"fixture_fee_paid","event_id":"evt_1","intent_id":"pi_1","email":"ann@example.com","first_name":"Ann","payment_type":"fixture_fee","season_name":"Winter 2024","amount":"45.00","currency":"aud"}`,
			setupMocks: func(tr *MockTransport) *recordingWriter {
				return expectDelivery(tr, "ann@example.com")
			},
			wantContains: []string{
				"From: club@example.com\r\n",
				"To: ann@example.com\r\n",
				"Subject: Fixture fee received for Winter 2024\r\n",
				"Hi Ann,",
				"45.00 AUD for Winter 2024",
			},
		},
		{
			name: "social card receipt",
			body: `{"kind":"social_card_issued","event_id":"evt_2","intent_id":"pi_2","email":"bob@example.com","amount":"50.00","currency":"aud"}`,
			setupMocks: func(tr *MockTransport) *recordingWriter {
				return expectDelivery(tr, "bob@example.com")
			},
			wantContains: []string{"Subject: Your 10-session social card", "Hi member,", "50.00 AUD"},
		},
		{
			name:       "malformed message is dropped",
			body:       `not json`,
			setupMocks: func(_ *MockTransport) *recordingWriter { return nil },
		},
		{
			name:       "missing recipient is dropped",
			body:       `{"kind":"fixture_fee_paid","event_id":"evt_3"}`,
			setupMocks: func(_ *MockTransport) *recordingWriter { return nil },
		},
		{
			name: "connection failure is retried",
			body: `{"kind":"fixture_fee_paid","email":"ann@example.com","amount":"45.00","currency":"aud"}`,
			setupMocks: func(tr *MockTransport) *recordingWriter {
				tr.On("GetSMTPUser").Return("club@example.com")
				tr.On("Connect").Return(nil, errors.New("connection refused")).Once()
				return nil
			},
			wantErr: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(MockTransport)
			w := tt.setupMocks(tr)
			svc := notification.NewSenderService(tr, "admin@example.com", newNoopLogger())

			err := svc.SendPaymentReceipt([]byte(tt.body))
			tr.AssertExpectations(t)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if w != nil {
				assert.True(t, w.closed)
				for _, s := range tt.wantContains {
					assert.Contains(t, string(w.written), s)
				}
			}
		})
	}
}

func TestSenderService_SendUnmatchedAlert(t *testing.T) {
	body := []byte(`{"kind":"unmatched_payment","event_id":"evt_9","intent_id":"pi_9","email":"stranger@example.com","amount":"45.00","currency":"aud","reason":"no account with this email"}`)

	t.Run("goes to admin", func(t *testing.T) {
		tr := new(MockTransport)
		w := expectDelivery(tr, "admin@example.com")
		svc := notification.NewSenderService(tr, "admin@example.com", newNoopLogger())

		require.NoError(t, svc.SendUnmatchedAlert(body))
		tr.AssertExpectations(t)
		msg := string(w.written)
		assert.Contains(t, msg, "Subject: Unmatched payment pi_9\r\n")
		assert.Contains(t, msg, "Reason: no account with this email")
		assert.Contains(t, msg, "Receipt email: stranger@example.com")
		assert.Contains(t, msg, "Payment type: none")
	})

	t.Run("no admin address configured", func(t *testing.T) {
		tr := new(MockTransport)
		svc := notification.NewSenderService(tr, "", newNoopLogger())

		require.NoError(t, svc.SendUnmatchedAlert(body))
		tr.AssertNotCalled(t, "Connect")
	})
}

func TestSenderService_HeaderInjection(t *testing.T) {
	tr := new(MockTransport)
	w := expectDelivery(tr, "ann@example.com")
	svc := notification.NewSenderService(tr, "admin@example.com", newNoopLogger())

	body := []byte(`{"kind":"fixture_fee_paid","email":"ann@example.com","season_name":"Winter\r\nBcc: victim@example.com","amount":"45.00","currency":"aud"}`)
	require.NoError(t, svc.SendPaymentReceipt(body))
	headers, _, found := strings.Cut(string(w.written), "\r\n\r\n")
	require.True(t, found)
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, headers, "Subject: Fixture fee received for WinterBcc: victim@example.com")
}
