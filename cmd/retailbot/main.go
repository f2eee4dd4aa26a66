// Package main contains the entrypoint for the retail bot and its inventory API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/logger"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	configPath string
	cfg        *config.Config
	log        *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "retailbot",
		Short:         "Telegram retail assistant and its inventory API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				slog.Error("Failed to load configuration", "path", a.configPath, "error", err)
				return err
			}
			a.cfg = cfg
			a.log = logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
			slog.SetDefault(a.log)
			a.log.Info("Logger initialized", "command", cmd.Name(), "level", cfg.Logger.Level, "json", cfg.Logger.JSON)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "./config.yaml", "Path to configuration file")

	root.AddCommand(
		newBotCmd(a),
		newAPICmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
	)
	return root
}

// logFailure logs err once at the command boundary and passes it through.
func (a *app) logFailure(msg string, err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error(msg, "error", err)
	}
	return err
}
