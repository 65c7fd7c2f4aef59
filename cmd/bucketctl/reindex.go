package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bucketlistapp/bucketlist-server/internal/search"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
)

func newReindexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the public item search index",
		Long: `Rebuilds the on-disk search index from the database. Stop the server
first: the index directory is locked while it runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, log, err := flags.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if cfg.Search.UsesMemoryIndex() {
				return fmt.Errorf("search index is configured in memory; nothing to rebuild")
			}

			index, err := search.NewItemIndex(search.Options{DataPath: cfg.Search.IndexPath, Logger: log})
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer index.Close()

			svc := service.NewSearchService(index, db, log)
			defer svc.Close()

			n, err := svc.Reindex(cmd.Context())
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d public items\n", n)
			return nil
		},
	}
}
