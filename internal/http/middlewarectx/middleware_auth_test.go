package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/club-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-membership/internal/models"
)

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	args := m.Called(ctx, token)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		mockAccount    *models.Account
		mockErr        error
		expectCall     bool
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "token rejected",
			authHeader:     "Bearer token",
			mockErr:        errors.New("invalid credentials"),
			expectCall:     true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockAccount:    &models.Account{ID: 9, Email: "ann@example.com"},
			expectCall:     true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthenticatorMock)
			if tt.expectCall {
				authMock.On("Authenticate", mock.Anything, tt.authHeader[len("Bearer "):]).
					Return(tt.mockAccount, tt.mockErr).Once()
			}

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				account, ok := middlewarectx.AccountFrom(r.Context())
				require.True(t, ok)
				assert.Equal(t, int64(9), account.ID)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/player/profile/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			authMock.AssertExpectations(t)
		})
	}
}

func TestAccountFrom_Missing(t *testing.T) {
	_, ok := middlewarectx.AccountFrom(context.Background())
	assert.False(t, ok)

	ctx := middlewarectx.WithAccount(context.Background(), &models.Account{ID: 1})
	account, ok := middlewarectx.AccountFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(1), account.ID)
}
