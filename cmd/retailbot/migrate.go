package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techretail/retailbot/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(*cobra.Command, []string) error {
			// NewDB applies every pending migration before returning.
			db, err := database.NewDB(a.cfg.Database.Path)
			if err != nil {
				return a.logFailure("Migration failed", fmt.Errorf("failed to migrate database: %w", err))
			}
			database.CloseDB(db)
			return nil
		},
	}
}
