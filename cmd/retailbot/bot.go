package main

import (
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/techretail/retailbot/internal/assistant"
	"github.com/techretail/retailbot/internal/backend"
	"github.com/techretail/retailbot/internal/bot"
	"github.com/techretail/retailbot/internal/bot/handlers"
	"github.com/techretail/retailbot/internal/llm"
	"github.com/techretail/retailbot/internal/logger"
	"github.com/techretail/retailbot/internal/scheduler"
	"github.com/techretail/retailbot/internal/tasks"
	"github.com/techretail/retailbot/internal/telegram"
)

func newBotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram chatbot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.logFailure("Bot stopped due to error", a.runBot(cmd))
		},
	}
}

func (a *app) runBot(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, log := a.cfg, a.log

	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	generator, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	client, err := backend.NewClient(cfg.Backend, log)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	catalog := assistant.NewCatalog(client, cfg.Assistant.CatalogTTL, cfg.Assistant.ProductLimit, cfg.Assistant.FAQLimit, log)
	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Assistant: assistant.New(assistant.Deps{
			Logger:    log,
			Backend:   client,
			Catalog:   catalog,
			Generator: generator,
			Config:    cfg,
		}),
		Inventory: client,
		Listings:  handlers.NewListingStore(cfg.Assistant.ListingTTL),
	}
	tDeps := tasks.TaskDeps{
		Logger:  log,
		Config:  cfg,
		Catalog: catalog,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.RateLimit(hDeps)),
		tgbot.WithDefaultHandler(handlers.NewTextHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		return err
	}

	// Retrieve bot info and store it in the config for runtime use
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		return fmt.Errorf("failed to register Telegram handlers: %w", err)
	}
	if err := telegram.SetCommands(ctx, tg, handlers.BotCommands()); err != nil {
		// The menu is cosmetic; commands still work without it.
		log.Warn("Failed to publish command menu", "error", err)
	}

	sched, err := scheduler.New(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		return err
	}

	log.Info("Starting bot...")
	if err := bot.NewBot(log, tg, sched).Run(ctx); err != nil {
		return err
	}
	log.Info("Bot stopped gracefully.")
	return nil
}
