package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/club-membership/internal/lib/localdate"
)

func cleanupCmd(open Opener) *cobra.Command {
	var (
		date  string
		watch bool
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "cleanup-attendance",
		Short: "Close attendance records still open for a day",
		Long: `Close every attendance record of the given day that has no exit time,
stamping it with the last instant of that day.

Defaults to yesterday in the club's time zone. Meant to run from cron shortly
after midnight. With --watch it stays in the foreground instead and cleans up
the previous day every night, --delay after local midnight.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch && date != "" {
				return errors.New("--watch and --date are mutually exclusive")
			}
			return withBackend(cmd, open, func(b *Backend) error {
				if watch {
					err := b.Attendance.RunDaily(cmd.Context(), delay)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}

				day := localdate.Yesterday(b.Now(), b.Location)
				if date != "" {
					parsed, err := localdate.Parse(date, b.Location)
					if err != nil {
						return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
					}
					day = parsed
				}

				n, err := b.Attendance.Cleanup(cmd.Context(), day)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "closed %d open attendance record(s) for %s\n", n, localdate.Format(day))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to clean up (YYYY-MM-DD), defaults to yesterday")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and clean up every night")
	cmd.Flags().DurationVar(&delay, "delay", 5*time.Minute, "with --watch, how long after midnight to run")
	return cmd
}
