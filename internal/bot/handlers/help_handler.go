package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/techretail/retailbot/internal/assistant"
)

// NewHelpHandler returns a handler for /ayuda. Without arguments it lists
// the FAQ questions; with a question it answers from the FAQs.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if !validMessage(update) {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	m := h.deps.messenger(b)
	msg := update.Message
	msgs := h.deps.Config.Messages
	question := strings.Join(commandArgs(msg.Text), " ")

	if question == "" {
		faqs, err := h.deps.Assistant.Catalog().FAQs(ctx)
		switch {
		case err != nil:
			log.ErrorContext(ctx, "Failed to load FAQs", "error", err)
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.BackendUnavailable)
		case len(faqs) == 0:
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.NoFAQs)
		default:
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.FAQHeader+assistant.FAQQuestions(faqs)+"\n"+msgs.FAQHint)
		}
		return
	}

	log.InfoContext(ctx, "Answering FAQ question", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)
	typing(ctx, h.deps, m, msg.Chat.ID)
	reply := h.deps.Assistant.Answer(ctx, question)
	respondAndRecord(ctx, h.deps, m, msg, msg.Text, reply.Text)
}
