package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(b *Backend) error {
				version, dirty, err := b.Migrate()
				if err != nil {
					return err
				}
				if dirty {
					return fmt.Errorf("schema version %d is dirty", version)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
				return nil
			})
		},
	}
}
