package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/club-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/club-membership/internal/lib/password"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/auth"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

type AccountRepoMock struct {
	mock.Mock
}

func (m *AccountRepoMock) CreateAccount(ctx context.Context, a models.Account) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AccountRepoMock) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *AccountRepoMock) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(accountID int64, email string) (string, error) {
	args := m.Called(accountID, email)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validSignup() auth.SignupInput {
	return auth.SignupInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@club.test",
		Phone:     "0400111222",
		Password:  "s3cret-pass",
		Password2: "s3cret-pass",
	}
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name       string
		input      func() auth.SignupInput
		setupMocks func(r *AccountRepoMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name:  "success",
			input: validSignup,
			setupMocks: func(r *AccountRepoMock, j *JwtMakerMock) {
				r.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a models.Account) bool {
					return a.Email == "jane@club.test" &&
						a.MembershipType == models.GenericUser &&
						password.CompareHash(a.PasswordHash, "s3cret-pass") == nil
				})).Return(int64(11), nil).Once()
				j.On("GenerateToken", int64(11), "jane@club.test").Return("token-11", nil).Once()
			},
		},
		{
			name: "password mismatch creates nothing",
			input: func() auth.SignupInput {
				in := validSignup()
				in.Password2 = "different"
				return in
			},
			setupMocks: func(_ *AccountRepoMock, _ *JwtMakerMock) {},
			wantErr:    auth.ErrPasswordMismatch,
		},
		{
			name:  "email taken",
			input: validSignup,
			setupMocks: func(r *AccountRepoMock, _ *JwtMakerMock) {
				r.On("CreateAccount", mock.Anything, mock.Anything).Return(int64(0), storage.ErrEmailTaken).Once()
			},
			wantErr: storage.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)
			svc := auth.NewService(repo, maker, newNoopLogger())

			token, account, err := svc.Register(context.Background(), tt.input())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, account)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "token-11", token)
				assert.Equal(t, int64(11), account.ID)
			}
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("right-password")
	require.NoError(t, err)
	active := &models.Account{ID: 5, Email: "p@club.test", PasswordHash: hash, IsActive: true}
	inactive := &models.Account{ID: 6, Email: "old@club.test", PasswordHash: hash, IsActive: false}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *AccountRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "success",
			email:    " P@club.test ",
			password: "right-password",
			setupMocks: func(r *AccountRepoMock, j *JwtMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "P@club.test").Return(active, nil).Once()
				j.On("GenerateToken", int64(5), "p@club.test").Return("token-5", nil).Once()
			},
			wantToken: "token-5",
		},
		{
			name:     "unknown email",
			email:    "nobody@club.test",
			password: "x",
			setupMocks: func(r *AccountRepoMock, _ *JwtMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "nobody@club.test").Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "p@club.test",
			password: "wrong",
			setupMocks: func(r *AccountRepoMock, _ *JwtMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "p@club.test").Return(active, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "inactive account",
			email:    "old@club.test",
			password: "right-password",
			setupMocks: func(r *AccountRepoMock, _ *JwtMakerMock) {
				r.On("GetAccountByEmail", mock.Anything, "old@club.test").Return(inactive, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)
			svc := auth.NewService(repo, maker, newNoopLogger())

			token, _, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}

func TestService_Login_StoreError(t *testing.T) {
	repo := new(AccountRepoMock)
	repo.On("GetAccountByEmail", mock.Anything, "p@club.test").Return(nil, errors.New("db down")).Once()
	svc := auth.NewService(repo, new(JwtMakerMock), newNoopLogger())

	_, _, err := svc.Login(context.Background(), "p@club.test", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *AccountRepoMock, j *JwtMakerMock)
		wantID     int64
		wantErr    error
	}{
		{
			name: "valid token",
			setupMocks: func(r *AccountRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(&customjwt.CustomClaims{AccountID: 9}, nil).Once()
				r.On("GetAccountByID", mock.Anything, int64(9)).Return(&models.Account{ID: 9, IsActive: true}, nil).Once()
			},
			wantID: 9,
		},
		{
			name: "bad token",
			setupMocks: func(_ *AccountRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(nil, errors.New("expired")).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name: "deleted account",
			setupMocks: func(r *AccountRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(&customjwt.CustomClaims{AccountID: 9}, nil).Once()
				r.On("GetAccountByID", mock.Anything, int64(9)).Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name: "inactive account",
			setupMocks: func(r *AccountRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(&customjwt.CustomClaims{AccountID: 9}, nil).Once()
				r.On("GetAccountByID", mock.Anything, int64(9)).Return(&models.Account{ID: 9, IsActive: false}, nil).Once()
			},
			wantErr: auth.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(AccountRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)
			svc := auth.NewService(repo, maker, newNoopLogger())

			account, err := svc.Authenticate(context.Background(), "tok")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, account)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, account.ID)
			}
		})
	}
}
