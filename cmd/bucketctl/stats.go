package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type statsOutput struct {
	ProfileID       string `yaml:"profile_id"`
	DisplayName     string `yaml:"display_name,omitempty"`
	TotalItems      int    `yaml:"total_items"`
	CompletedItems  int    `yaml:"completed_items"`
	InProgressItems int    `yaml:"in_progress_items"`
	NotStartedItems int    `yaml:"not_started_items"`
	CompletionRate  int    `yaml:"completion_rate"`
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <profile-id>",
		Short: "Print item counts for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, err := flags.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.GetUserStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := statsOutput{
				ProfileID:       args[0],
				TotalItems:      stats.TotalItems,
				CompletedItems:  stats.CompletedItems,
				InProgressItems: stats.InProgressItems,
				NotStartedItems: stats.NotStartedItems,
				CompletionRate:  stats.CompletionRate,
			}
			if stats.DisplayName != nil {
				out.DisplayName = *stats.DisplayName
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(out)
		},
	}
}
