package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Opens the configured database and applies any pending migrations.
Default categories are installed when the categories table is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, _, err := flags.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database migrated (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}
