package payment_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

type MockSeasons struct {
	mock.Mock
}

func (m *MockSeasons) Active(ctx context.Context, now time.Time) (*models.Season, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Season), args.Error(1)
}

func (m *MockSeasons) ByID(ctx context.Context, id int64) (*models.Season, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Season), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockRepository) MarkFeePaid(ctx context.Context, accountID, seasonID int64, chargeRef string) (bool, error) {
	args := m.Called(ctx, accountID, seasonID, chargeRef)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) IssueSocialCard(ctx context.Context, card models.SocialCard) (bool, error) {
	args := m.Called(ctx, card)
	return args.Bool(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func winter() *models.Season {
	return &models.Season{
		ID:                3,
		Name:              "Winter 2024",
		FixtureFeeAmount:  4500,
		FixtureFeeDueDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func member() *models.Account {
	return &models.Account{
		ID:             7,
		Email:          "ann@example.com",
		FirstName:      "Ann",
		MembershipType: models.GenericUser,
	}
}
