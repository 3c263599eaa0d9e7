package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/club-membership/internal/cache"
	"github.com/magabrotheeeer/club-membership/internal/cli"
	"github.com/magabrotheeeer/club-membership/internal/config"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
	"github.com/magabrotheeeer/club-membership/internal/migrations"
	"github.com/magabrotheeeer/club-membership/internal/services/attendance"
	"github.com/magabrotheeeer/club-membership/internal/services/season"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func open(ctx context.Context) (*cli.Backend, error) {
	cfg := config.MustLoad()
	out := io.Discard
	if cfg.Debug {
		out = os.Stderr
	}
	logger := sl.SetupLogger(cfg.Debug, out)

	db, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Создание сезона сбрасывает закэшированный в API сезон на сегодня.
	var (
		seasonCache season.Cache
		redis       *cache.Cache
	)
	if cfg.Redis.Address != "" {
		if c, err := cache.InitServer(ctx, cfg.Redis); err != nil {
			fmt.Fprintln(os.Stderr, "warning: redis unavailable, cached season may be stale until its TTL:", err)
		} else {
			seasonCache, redis = c, c
		}
	}

	loc := cfg.Location()
	return &cli.Backend{
		Attendance: attendance.NewService(db, loc, logger),
		Seasons:    season.NewService(db, seasonCache, cfg.Redis.SeasonTTL, loc, logger),
		Members:    db,
		Migrate: func() (uint, bool, error) {
			if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
				return 0, false, err
			}
			return migrations.Version(db.DB, cfg.MigrationsPath)
		},
		Location: loc,
		Close: func() error {
			if redis != nil {
				_ = redis.Close()
			}
			return db.Close()
		},
	}, nil
}
