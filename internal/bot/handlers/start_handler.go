package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command. It closes the
// user's open conversation so the next message starts a fresh one.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if !validMessage(update) {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", userID)

	if err := h.deps.Assistant.EndConversation(ctx, userID); err != nil {
		log.WarnContext(ctx, "Failed to close previous conversation", "user_id", userID, "error", err)
	}
	h.deps.Listings.Clear(userID)

	if respond(ctx, h.deps, h.deps.messenger(b), chatID, h.deps.Config.Messages.Welcome) {
		log.DebugContext(ctx, "Successfully sent welcome message", "chat_id", chatID)
	}
}
