package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/techretail/retailbot/internal/domain"
)

const (
	sendMessageTimeout = 10 * time.Second
	recordTimeout      = 10 * time.Second
)

// sendText delivers text with the configured parse mode. When Telegram
// cannot parse the markup the same text is sent once more as plain text.
func sendText(ctx context.Context, deps HandlerDeps, m Messenger, chatID int64, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseMode(deps.Config.Telegram.ParseMode),
	}
	_, err := m.SendMessage(sendCtx, params)
	if err == nil {
		return nil
	}
	if !isParseError(err) {
		return fmt.Errorf("failed to send message: %w", err)
	}

	deps.Logger.WarnContext(ctx, "Markup rejected by Telegram, resending as plain text", "chat_id", chatID, "error", err)
	params.ParseMode = ""
	if _, err := m.SendMessage(sendCtx, params); err != nil {
		return fmt.Errorf("failed to send plain text message: %w", err)
	}
	return nil
}

// respond sends text and, if that fails, a plain generic error message.
func respond(ctx context.Context, deps HandlerDeps, m Messenger, chatID int64, text string) bool {
	err := sendText(ctx, deps, m, chatID, text)
	if err == nil {
		return true
	}
	deps.Logger.ErrorContext(ctx, "Failed to send reply", "chat_id", chatID, "error", err)

	if _, fallbackErr := m.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: deps.Config.Messages.GeneralError}); fallbackErr != nil {
		deps.Logger.ErrorContext(ctx, "Failed to send error message", "chat_id", chatID, "error", fallbackErr)
	}
	return false
}

// respondAndRecord sends text and logs the turn with what the user actually
// received: the reply, or the generic error text when delivery failed.
func respondAndRecord(ctx context.Context, deps HandlerDeps, m Messenger, msg *models.Message, userText, text string) {
	if !respond(ctx, deps, m, msg.Chat.ID, text) {
		text = deps.Config.Messages.GeneralError
	}
	record(ctx, deps, identity(msg.From), userText, text)
}

func isParseError(err error) bool {
	return errors.Is(err, bot.ErrorBadRequest) && strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

// typing shows the typing indicator; failures only matter for debugging.
func typing(ctx context.Context, deps HandlerDeps, m Messenger, chatID int64) {
	if _, err := m.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		deps.Logger.DebugContext(ctx, "Failed to send typing action", "chat_id", chatID, "error", err)
	}
}

// record logs the exchange to the user's conversation without blocking the
// reply on failure.
func record(ctx context.Context, deps HandlerDeps, who domain.Identity, userText, botText string) {
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := deps.Assistant.Record(recCtx, who, userText, botText); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to record conversation turn", "telegram_id", who.TelegramID, "error", err)
	}
}

func identity(u *models.User) domain.Identity {
	return domain.Identity{
		TelegramID: u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

// commandArgs returns the words after the command itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// positiveInts parses every arg as an integer greater than zero.
func positiveInts(args []string) ([]int, bool) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n <= 0 {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// validMessage reports whether the update carries a message with a sender.
func validMessage(update *models.Update) bool {
	return update.Message != nil && update.Message.From != nil
}

// backendText picks the user-facing text for a failed backend call.
func backendText(deps HandlerDeps, err error) string {
	msgs := deps.Config.Messages
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return msgs.ProductNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return msgs.InsufficientStock
	case errors.Is(err, domain.ErrValidation):
		return msgs.InvalidNumbers
	default:
		return msgs.BackendUnavailable
	}
}
