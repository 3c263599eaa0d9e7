package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/club-membership/internal/lib/localdate"
	"github.com/magabrotheeeer/club-membership/internal/models"
)

func seasonCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Manage seasons",
	}
	cmd.AddCommand(seasonAddCmd(open), seasonListCmd(open))
	return cmd
}

type seasonFlags struct {
	name, start, end, fee, due string
}

func (f seasonFlags) season(b *Backend) (models.Season, error) {
	if f.name == "" {
		return models.Season{}, errors.New("--name is required")
	}

	start, err := parseDateFlag("--start", f.start, b)
	if err != nil {
		return models.Season{}, err
	}
	end, err := parseDateFlag("--end", f.end, b)
	if err != nil {
		return models.Season{}, err
	}
	due, err := parseDateFlag("--due", f.due, b)
	if err != nil {
		return models.Season{}, err
	}
	fee, err := models.ParseMoney(f.fee)
	if err != nil {
		return models.Season{}, fmt.Errorf("invalid --fee %q: %w", f.fee, err)
	}

	return models.Season{
		Name:              f.name,
		StartDate:         start,
		EndDate:           end,
		FixtureFeeAmount:  fee,
		FixtureFeeDueDate: due,
	}, nil
}

func parseDateFlag(flag, value string, b *Backend) (time.Time, error) {
	day, err := localdate.Parse(value, b.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", flag, value)
	}
	return day, nil
}

func seasonAddCmd(open Opener) *cobra.Command {
	var flags seasonFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a season",
		Example: `  clubctl season add --name "Winter 2024" --start 2024-04-01 --end 2024-08-31 \
    --fee 45.00 --due 2024-05-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(b *Backend) error {
				s, err := flags.season(b)
				if err != nil {
					return err
				}
				id, err := b.Seasons.Create(cmd.Context(), s, b.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created season %d %q\n", id, s.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "season name")
	cmd.Flags().StringVar(&flags.start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.end, "end", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.fee, "fee", "0", "fixture fee, e.g. 45.00")
	cmd.Flags().StringVar(&flags.due, "due", "", "fixture fee due date (YYYY-MM-DD)")
	return cmd
}

func seasonListCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List seasons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(b *Backend) error {
				seasons, err := b.Seasons.List(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTART\tEND\tFEE\tDUE")
				for _, s := range seasons {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name,
						localdate.Format(s.StartDate), localdate.Format(s.EndDate),
						s.FixtureFeeAmount, localdate.Format(s.FixtureFeeDueDate))
				}
				return w.Flush()
			})
		},
	}
}
