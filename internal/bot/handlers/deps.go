package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/techretail/retailbot/internal/assistant"
	"github.com/techretail/retailbot/internal/backend"
	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/domain"
)

// Messenger is the subset of the Telegram API the handlers use.
// *bot.Bot satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// Inventory is the reservation side of the backend API.
type Inventory interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	Reserve(ctx context.Context, productID int64, quantity int, who domain.Identity) (*domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (*domain.Order, error)
	RemoveItem(ctx context.Context, itemID int64) (*domain.Order, error)
}

var _ Inventory = (*backend.Client)(nil)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Assistant *assistant.Assistant
	Inventory Inventory
	Listings  *ListingStore
	// Messenger overrides the *bot.Bot passed to handlers. Tests set it.
	Messenger Messenger
}

func (d HandlerDeps) messenger(b *bot.Bot) Messenger {
	if d.Messenger != nil {
		return d.Messenger
	}
	return b
}
