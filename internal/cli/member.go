package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/club-membership/internal/lib/localdate"
	"github.com/magabrotheeeer/club-membership/internal/models"
	"github.com/magabrotheeeer/club-membership/internal/storage"
)

func memberCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Inspect and update member accounts",
	}
	cmd.AddCommand(memberSetTierCmd(open), memberCardsCmd(open), memberFeesCmd(open))
	return cmd
}

func memberSetTierCmd(open Opener) *cobra.Command {
	var tier, expiry string

	cmd := &cobra.Command{
		Use:   "set-tier <email>",
		Short: "Change a member's membership tier",
		Long: `Change a member's membership tier.

Annual tiers (GOLD_ANNUAL, SILVER_ANNUAL) take an --expiry date, which also
marks the member as an active annual member. Without --expiry the annual flag
is cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := models.MembershipType(strings.ToUpper(tier))
			if !t.Valid() {
				return fmt.Errorf("unknown tier %q", tier)
			}

			return withBackend(cmd, open, func(b *Backend) error {
				var annualExpiry *time.Time
				if expiry != "" {
					day, err := parseDateFlag("--expiry", expiry, b)
					if err != nil {
						return err
					}
					annualExpiry = &day
				}

				account, err := b.Members.GetAccountByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find member %s: %w", args[0], err)
				}
				if err := b.Members.UpdateMembership(cmd.Context(), account.ID, t, annualExpiry); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", account.Email, t)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "", "GENERIC_USER, SOCIAL_CARD_HOLDER, GOLD_ANNUAL or SILVER_ANNUAL")
	cmd.Flags().StringVar(&expiry, "expiry", "", "annual membership expiry date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func memberCardsCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "cards <email>",
		Short: "List a member's social cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(b *Backend) error {
				account, err := b.Members.GetAccountByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find member %s: %w", args[0], err)
				}
				cards, err := b.Members.ListSocialCards(cmd.Context(), account.ID)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CARD\tSTATUS\tREMAINING\tISSUED")
				for _, c := range cards {
					fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n", c.CardID, c.Status,
						c.SessionsRemaining, c.SessionsTotal, localdate.Format(c.CreatedAt.In(b.Location)))
				}
				return w.Flush()
			})
		},
	}
}

func memberFeesCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "fees <email>",
		Short: "Show a member's fixture fee status for every season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(b *Backend) error {
				account, err := b.Members.GetAccountByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("find member %s: %w", args[0], err)
				}
				seasons, err := b.Seasons.List(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SEASON\tFEE\tSTATUS\tCHARGE")
				for _, s := range seasons {
					status, charge := "UNPAID", "-"
					rec, err := b.Members.GetFeeRecord(cmd.Context(), account.ID, s.ID)
					switch {
					case errors.Is(err, storage.ErrNotFound):
					case err != nil:
						return err
					default:
						status = string(rec.PaymentStatus)
						if rec.ExternalChargeRef != nil {
							charge = *rec.ExternalChargeRef
						}
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.FixtureFeeAmount, status, charge)
				}
				return w.Flush()
			})
		},
	}
}
