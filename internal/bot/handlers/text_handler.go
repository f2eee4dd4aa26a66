package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTextHandler creates the default handler: free text goes through the
// assistant, unknown commands get a hint.
func NewTextHandler(deps HandlerDeps) bot.HandlerFunc {
	return textHandler{deps}.Handle
}

type textHandler struct {
	deps HandlerDeps
}

func (h textHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "text")

	if !validMessage(update) || strings.TrimSpace(update.Message.Text) == "" {
		log.DebugContext(ctx, "Ignoring update without text", "update_id", update.ID)
		return
	}

	m := h.deps.messenger(b)
	msg := update.Message
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		respond(ctx, h.deps, m, msg.Chat.ID, h.deps.Config.Messages.UnknownCommand)
		return
	}

	typing(ctx, h.deps, m, msg.Chat.ID)
	reply := h.deps.Assistant.Reply(ctx, identity(msg.From), text)
	if len(reply.Orders) > 0 {
		h.deps.Listings.Put(msg.From.ID, reply.Orders)
	}
	log.InfoContext(ctx, "Replying to message", "chat_id", msg.Chat.ID, "user_id", msg.From.ID, "source", reply.Source)

	respondAndRecord(ctx, h.deps, m, msg, text, reply.Text)
}
