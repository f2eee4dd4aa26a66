package assistant

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/techretail/retailbot/internal/domain"
	"github.com/techretail/retailbot/internal/logger"
)

// Turn is one line of past dialogue.
type Turn struct {
	Sender  string
	Content string
}

// Grounding is everything fetched for one prompt. Empty fields mean the
// source was unavailable or had no data.
type Grounding struct {
	Products []domain.Product
	FAQs     []domain.FAQ
	History  []Turn
	User     *domain.User
}

// Gatherer fetches grounding context concurrently. A failing source is
// logged and left empty; it never fails the turn.
type Gatherer struct {
	backend       Backend
	catalog       *Catalog
	conversations int
	messages      int
	logger        *slog.Logger
}

// NewGatherer creates a gatherer reading the last conversations of a user,
// up to messages turns each.
func NewGatherer(b Backend, catalog *Catalog, conversations, messages int, log *slog.Logger) *Gatherer {
	if log == nil {
		log = logger.Discard()
	}
	return &Gatherer{
		backend:       b,
		catalog:       catalog,
		conversations: conversations,
		messages:      messages,
		logger:        log.With("component", "gatherer"),
	}
}

// Gather loads products, FAQs, history and the user profile.
func (g *Gatherer) Gather(ctx context.Context, telegramID int64) Grounding {
	var out Grounding
	var eg errgroup.Group

	eg.Go(func() error {
		products, err := g.catalog.Products(ctx)
		if err != nil {
			g.logger.WarnContext(ctx, "Product context unavailable", "error", err)
			return nil
		}
		out.Products = products
		return nil
	})
	eg.Go(func() error {
		faqs, err := g.catalog.FAQs(ctx)
		if err != nil {
			g.logger.WarnContext(ctx, "FAQ context unavailable", "error", err)
			return nil
		}
		out.FAQs = faqs
		return nil
	})
	eg.Go(func() error {
		history, err := g.History(ctx, telegramID)
		if err != nil {
			g.logger.WarnContext(ctx, "History context unavailable", "telegram_id", telegramID, "error", err)
			return nil
		}
		out.History = history
		return nil
	})
	eg.Go(func() error {
		user, err := g.backend.FindUser(ctx, telegramID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				g.logger.WarnContext(ctx, "Profile unavailable", "telegram_id", telegramID, "error", err)
			}
			return nil
		}
		out.User = user
		return nil
	})

	_ = eg.Wait()
	return out
}

// History returns the last turns of the user's most recent conversations in
// chronological order.
func (g *Gatherer) History(ctx context.Context, telegramID int64) ([]Turn, error) {
	if g.conversations <= 0 || g.messages <= 0 {
		return nil, nil
	}

	conversations, err := g.backend.RecentConversations(ctx, telegramID, g.conversations, false)
	if err != nil {
		return nil, err
	}

	var turns []Turn
	// newest first from the API
	for _, conv := range slices.Backward(conversations) {
		messages, err := g.backend.RecentMessages(ctx, conv.ID, g.messages)
		if err != nil {
			return nil, err
		}
		for _, m := range slices.Backward(messages) {
			turns = append(turns, Turn{Sender: m.Sender, Content: m.Content})
		}
	}
	return turns, nil
}
