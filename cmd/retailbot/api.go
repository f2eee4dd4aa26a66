package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/techretail/retailbot/internal/api"
	"github.com/techretail/retailbot/internal/database"
	"github.com/techretail/retailbot/internal/scheduler"
	"github.com/techretail/retailbot/internal/tasks"
)

func newAPICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Run the inventory REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.logFailure("API stopped due to error", a.runAPI(cmd))
		},
	}
}

func (a *app) runAPI(cmd *cobra.Command) error {
	cfg, log := a.cfg, a.log

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	sched, err := scheduler.New(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
	}))
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return api.NewServer(cfg.API, store, log).Run(gCtx)
	})
	g.Go(func() error {
		return sched.Run(gCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("API stopped gracefully.")
	return nil
}
