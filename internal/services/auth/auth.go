// Package auth регистрирует аккаунты, проверяет учетные данные и выпускает
// bearer-токены, идентифицирующие аккаунт в API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/club-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/club-membership/internal/lib/password"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

var (
	// ErrInvalidCredentials покрывает неизвестный email, неверный пароль,
	// неактивный аккаунт и плохой токен.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordMismatch возвращается, если подтверждение пароля не совпадает.
	ErrPasswordMismatch = errors.New("password fields didn't match")
)

// AccountRepository описывает хранилище аккаунтов для Service.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a models.Account) (int64, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
}

// SignupInput описывает запрос на регистрацию.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	DOB       *time.Time
	Password  string
	Password2 string
}

// Service реализует регистрацию, вход и аутентификацию по токену.
type Service struct {
	accounts AccountRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(accounts AccountRepository, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		accounts: accounts,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает аккаунт GENERIC_USER и возвращает для него токен. Аккаунт
// не создается, если пароли не совпадают или email занят
// (storage.ErrEmailTaken).
func (s *Service) Register(ctx context.Context, in SignupInput) (string, *models.Account, error) {
	const op = "auth.Register"
	if in.Password != in.Password2 {
		return "", nil, ErrPasswordMismatch
	}

	hashed, err := password.GetHash(in.Password)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	account := models.Account{
		Email:          strings.TrimSpace(in.Email),
		PasswordHash:   hashed,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Phone:          in.Phone,
		DOB:            in.DOB,
		MembershipType: models.GenericUser,
		IsActive:       true,
	}
	id, err := s.accounts.CreateAccount(ctx, account)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	account.ID = id

	token, err := s.jwtMaker.GenerateToken(account.ID, account.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("account registered", slog.String("op", op), slog.Int64("account_id", id))
	return token, &account, nil
}

// Login проверяет email и пароль и возвращает новый токен.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, *models.Account, error) {
	const op = "auth.Login"
	account, err := s.accounts.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		s.log.Warn("login attempt on inactive account", slog.String("op", op), slog.Int64("account_id", account.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(account.ID, account.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, account, nil
}

// Authenticate находит по bearer-токену активный аккаунт.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	const op = "auth.Authenticate"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		s.log.Debug("token rejected", slog.String("op", op), sl.Err(err))
		return nil, ErrInvalidCredentials
	}
	account, err := s.accounts.GetAccountByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !account.IsActive {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}
