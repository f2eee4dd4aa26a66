package main

import (
	"github.com/spf13/cobra"

	"github.com/techretail/retailbot/internal/database"
)

func newSeedCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, products and FAQs from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := database.LoadSeedFile(file)
			if err != nil {
				return a.logFailure("Failed to read seed file", err)
			}

			db, err := database.NewDB(a.cfg.Database.Path)
			if err != nil {
				return a.logFailure("Failed to connect to database", err)
			}
			defer database.CloseDB(db)

			res, err := database.Seed(cmd.Context(), database.NewStore(db, a.log), seed)
			a.log.Info("Seed finished",
				"categories", res.Categories,
				"products", res.Products,
				"faq_categories", res.FAQCategories,
				"faqs", res.FAQs,
			)
			return a.logFailure("Seed failed", err)
		},
	}
	cmd.Flags().StringVar(&file, "file", "./catalog.yaml", "Path to the catalog YAML file")
	return cmd
}
