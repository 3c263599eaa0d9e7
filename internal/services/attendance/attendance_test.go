package attendance_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/services/attendance"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) OpenAttendance(ctx context.Context, accountID int64, day, entry time.Time, consumeSession bool) (*models.AttendanceRecord, error) {
	args := m.Called(ctx, accountID, day, entry, consumeSession)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceRecord), args.Error(1)
}

func (m *MockRepository) CloseAttendance(ctx context.Context, accountID int64, day, exit time.Time) (*models.AttendanceRecord, error) {
	args := m.Called(ctx, accountID, day, exit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceRecord), args.Error(1)
}

func (m *MockRepository) CloseOpenAttendance(ctx context.Context, day, exit time.Time) (int64, error) {
	args := m.Called(ctx, day, exit)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func brisbane(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Brisbane")
	require.NoError(t, err)
	return loc
}

func TestService_CheckIn(t *testing.T) {
	loc := brisbane(t)
	// 23:30 UTC 1 марта в Брисбене уже 09:30 2 марта.
	now := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, loc)

	tests := []struct {
		name        string
		tier        models.MembershipType
		consume     bool
		repoErr     error
		wantErr     error
		wantConsume bool
	}{
		{name: "generic user", tier: models.GenericUser, consume: false},
		{name: "gold member", tier: models.GoldAnnual, consume: false},
		{name: "social card holder consumes a session", tier: models.SocialCardHolder, consume: true, wantConsume: true},
		{name: "already checked in", tier: models.GenericUser, consume: false, repoErr: storage.ErrAlreadyCheckedIn, wantErr: attendance.ErrAlreadyCheckedIn},
		{name: "no sessions left", tier: models.SocialCardHolder, consume: true, repoErr: storage.ErrNoActiveSocialCard, wantErr: attendance.ErrNoActiveSocialCard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			entry := now.In(loc)
			if tt.repoErr != nil {
				repo.On("OpenAttendance", mock.Anything, int64(5), day, entry, tt.consume).
					Return(nil, fmt.Errorf("storage.OpenAttendance: %w", tt.repoErr)).Once()
			} else {
				repo.On("OpenAttendance", mock.Anything, int64(5), day, entry, tt.consume).
					Return(&models.AttendanceRecord{ID: 11, AccountID: 5, EntryTime: entry, DailySessionConsumed: tt.consume}, nil).Once()
			}
			svc := attendance.NewService(repo, loc, newNoopLogger()).WithClock(func() time.Time { return now })

			rec, err := svc.CheckIn(context.Background(), &models.Account{ID: 5, MembershipType: tt.tier})
			repo.AssertExpectations(t)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(11), rec.ID)
			assert.Equal(t, tt.wantConsume, rec.DailySessionConsumed)
		})
	}
}

func TestService_CheckOut(t *testing.T) {
	loc := brisbane(t)
	now := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, loc)

	t.Run("closes open record", func(t *testing.T) {
		repo := new(MockRepository)
		exit := now.In(loc)
		repo.On("CloseAttendance", mock.Anything, int64(5), day, exit).
			Return(&models.AttendanceRecord{ID: 11, AccountID: 5, ExitTime: &exit}, nil).Once()
		svc := attendance.NewService(repo, loc, newNoopLogger()).WithClock(func() time.Time { return now })

		rec, err := svc.CheckOut(context.Background(), 5)
		require.NoError(t, err)
		require.NotNil(t, rec.ExitTime)
		assert.True(t, rec.ExitTime.Equal(now))
		repo.AssertExpectations(t)
	})

	t.Run("nothing open", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CloseAttendance", mock.Anything, int64(5), day, mock.Anything).
			Return(nil, fmt.Errorf("storage.CloseAttendance: %w", storage.ErrNotFound)).Once()
		svc := attendance.NewService(repo, loc, newNoopLogger()).WithClock(func() time.Time { return now })

		_, err := svc.CheckOut(context.Background(), 5)
		require.ErrorIs(t, err, attendance.ErrNotCheckedIn)
	})

	t.Run("store error", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CloseAttendance", mock.Anything, int64(5), day, mock.Anything).
			Return(nil, errors.New("db down")).Once()
		svc := attendance.NewService(repo, loc, newNoopLogger()).WithClock(func() time.Time { return now })

		_, err := svc.CheckOut(context.Background(), 5)
		require.Error(t, err)
		assert.NotErrorIs(t, err, attendance.ErrNotCheckedIn)
	})
}

func TestService_Cleanup(t *testing.T) {
	loc := brisbane(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	endOfDay := time.Date(2024, 3, 1, 23, 59, 59, 999999000, loc)

	tests := []struct {
		name    string
		updated int64
		repoErr error
	}{
		{name: "closes open records", updated: 3},
		{name: "nothing to close", updated: 0},
		{name: "store error", repoErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("CloseOpenAttendance", mock.Anything, day, endOfDay).Return(tt.updated, tt.repoErr).Once()
			svc := attendance.NewService(repo, loc, newNoopLogger())

			n, err := svc.Cleanup(context.Background(), day)
			repo.AssertExpectations(t)
			if tt.repoErr != nil {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.updated, n)
		})
	}
}

func TestService_CleanupYesterday(t *testing.T) {
	loc := brisbane(t)
	// 2 марта 06:00 по Брисбену.
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)

	repo := new(MockRepository)
	repo.On("CloseOpenAttendance", mock.Anything, day, mock.MatchedBy(func(exit time.Time) bool {
		return exit.Equal(time.Date(2024, 3, 1, 23, 59, 59, 999999000, loc))
	})).Return(int64(1), nil).Once()
	svc := attendance.NewService(repo, loc, newNoopLogger()).WithClock(func() time.Time { return now })

	n, err := svc.CleanupYesterday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	repo.AssertExpectations(t)
}

func TestService_RunDaily(t *testing.T) {
	loc := brisbane(t)

	t.Run("stops when context is done", func(t *testing.T) {
		repo := new(MockRepository)
		svc := attendance.NewService(repo, loc, newNoopLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := svc.RunDaily(ctx, time.Minute)

		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertNotCalled(t, "CloseOpenAttendance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cleans up the previous day after midnight", func(t *testing.T) {
		// За 20мс до полуночи 1 марта по Брисбену.
		now := time.Date(2024, 3, 1, 23, 59, 59, 980000000, loc)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		repo := new(MockRepository)
		repo.On("CloseOpenAttendance", mock.Anything, time.Date(2024, 2, 29, 0, 0, 0, 0, loc), mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(int64(2), nil).Once()
		svc := attendance.NewService(repo, loc, newNoopLogger()).WithClock(func() time.Time { return now })

		err := svc.RunDaily(ctx, 0)

		assert.ErrorIs(t, err, context.Canceled)
		repo.AssertExpectations(t)
	})
}
