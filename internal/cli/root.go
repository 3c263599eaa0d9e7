// Package cli реализует clubctl, консольную утилиту оператора
// клубного бэкенда.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/club-membership/internal/models"
)

// AttendanceCleaner закрывает незакрытые записи посещаемости.
type AttendanceCleaner interface {
	Cleanup(ctx context.Context, day time.Time) (int64, error)
	RunDaily(ctx context.Context, delay time.Duration) error
}

// SeasonManager создает сезоны и выводит их список.
type SeasonManager interface {
	Create(ctx context.Context, season models.Season, now time.Time) (int64, error)
	List(ctx context.Context) ([]models.Season, error)
}

// MemberStore читает и обновляет аккаунты участников.
type MemberStore interface {
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateMembership(ctx context.Context, id int64, tier models.MembershipType, annualExpiry *time.Time) error
	ListSocialCards(ctx context.Context, accountID int64) ([]models.SocialCard, error)
	GetFeeRecord(ctx context.Context, accountID, seasonID int64) (*models.SeasonFeeRecord, error)
}

// Backend содержит все, с чем работают команды. Close освобождает ресурсы.
type Backend struct {
	Attendance AttendanceCleaner
	Seasons    SeasonManager
	Members    MemberStore
	// Migrate применяет новые миграции и возвращает версию схемы.
	Migrate  func() (version uint, dirty bool, err error)
	Location *time.Location
	Now      func() time.Time
	Close    func() error
}

// Opener создает Backend, когда он понадобится команде.
type Opener func(ctx context.Context) (*Backend, error)

// NewRootCommand возвращает дерево команд clubctl.
func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "clubctl",
		Short:         "Operator tasks for the club membership backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		cleanupCmd(open),
		migrateCmd(open),
		seasonCmd(open),
		memberCmd(open),
	)
	return root
}

// withBackend открывает backend, выполняет fn и закрывает его.
func withBackend(cmd *cobra.Command, open Opener, fn func(b *Backend) error) error {
	b, err := open(cmd.Context())
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	if b.Close != nil {
		defer b.Close()
	}
	if b.Now == nil {
		b.Now = time.Now
	}
	if b.Location == nil {
		b.Location = time.UTC
	}
	return fn(b)
}
