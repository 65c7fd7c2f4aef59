package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// categoryFile is the YAML layout accepted by "seed categories":
//
//	categories:
//	  - id: 1
//	    name: Travel
//	    color: "#3B82F6"
type categoryFile struct {
	Categories []struct {
		ID    int64  `yaml:"id"`
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
	} `yaml:"categories"`
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data",
	}

	var file string
	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "Insert or update categories",
		Long: `Upserts categories by id. Without --file the built-in default set is
written, which restores renamed defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories := domain.DefaultCategories
			if file != "" {
				var err error
				if categories, err = readCategoryFile(file); err != nil {
					return err
				}
			}

			_, db, _, err := flags.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.UpsertCategories(cmd.Context(), categories)
			if err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories\n", n)
			return nil
		},
	}
	categoriesCmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a categories list")

	seedCmd.AddCommand(categoriesCmd)
	return seedCmd
}

func readCategoryFile(path string) ([]domain.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseCategories(data)
}

func parseCategories(data []byte) ([]domain.Category, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("parse categories: no categories listed")
	}

	seen := make(map[int64]bool, len(f.Categories))
	out := make([]domain.Category, 0, len(f.Categories))
	for _, c := range f.Categories {
		if seen[c.ID] {
			return nil, fmt.Errorf("parse categories: duplicate id %d", c.ID)
		}
		seen[c.ID] = true
		out = append(out, domain.Category{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	return out, nil
}
