package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/club-membership/internal/app/membership"
	"github.com/magabrotheeeer/club-membership/internal/config"
	"github.com/magabrotheeeer/club-membership/internal/lib/sl"
)

// @title						Club Membership API
// @version					1.0
// @description				Аккаунты участников, взносы за матчи, социальные карты и посещаемость спортивного клуба.
// @BasePath					/api
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Debug, os.Stdout)

	logger.Info("starting membership api", slog.String("address", cfg.HTTPServer.Address), slog.String("time_zone", cfg.TimeZone))
	logger.Debug("debug messages are enabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := membership.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize membership api", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("membership api stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("membership api stopped gracefully")
}
