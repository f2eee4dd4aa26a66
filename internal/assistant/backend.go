// Package assistant turns a customer's message into a reply: it routes
// deterministic intents, gathers grounding context, builds the LLM prompt
// and records the conversation.
package assistant

import (
	"context"

	"github.com/techretail/retailbot/internal/backend"
	"github.com/techretail/retailbot/internal/domain"
)

// Backend is the part of the inventory API the assistant depends on.
// *backend.Client implements it.
type Backend interface {
	ListProducts(ctx context.Context, q backend.ProductQuery) ([]domain.Product, error)
	ListFAQs(ctx context.Context, limit int) ([]domain.FAQ, error)

	FindUser(ctx context.Context, telegramID int64) (*domain.User, error)
	UpsertUser(ctx context.Context, identity domain.Identity) (*domain.User, error)
	UpdatePreferences(ctx context.Context, userID int64, preferences string) (*domain.User, error)

	OpenConversation(ctx context.Context, userID int64) (*domain.Conversation, error)
	OpenConversationOf(ctx context.Context, telegramID int64) (*domain.Conversation, error)
	CloseConversation(ctx context.Context, id int64) error
	RecentConversations(ctx context.Context, telegramID int64, limit int, openOnly bool) ([]domain.Conversation, error)
	RecentMessages(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error)
	CreateMessage(ctx context.Context, conversationID int64, sender, content string) (*domain.Message, error)

	OrdersByUser(ctx context.Context, telegramID int64) ([]domain.Order, error)
}

var _ Backend = (*backend.Client)(nil)
