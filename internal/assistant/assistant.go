package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/domain"
	"github.com/techretail/retailbot/internal/llm"
	"github.com/techretail/retailbot/internal/logger"
)

// Source tells where a reply came from.
type Source string

// Reply sources.
const (
	SourceLLM         Source = "llm"
	SourceFallback    Source = "fallback"
	SourceOrders      Source = "orders"
	SourceCancelHowTo Source = "cancel_how_to"
	SourceCatalog     Source = "catalog"
	SourceCategory    Source = "category"
	SourceUnavailable Source = "unavailable"
)

// Reply is the answer to one customer message.
type Reply struct {
	Text   string
	Source Source
	// Orders is set when the reply is an orders listing.
	Orders []domain.Order
}

// Deps are the collaborators of an Assistant.
type Deps struct {
	Logger    *slog.Logger
	Backend   Backend
	Catalog   *Catalog
	Generator llm.Generator
	Config    *config.Config
}

// Assistant answers customer messages.
type Assistant struct {
	backend  Backend
	catalog  *Catalog
	gatherer *Gatherer
	router   *Router
	prompts  *PromptBuilder
	llm      llm.Generator
	timeout  time.Duration
	messages config.MessagesConfig
	logger   *slog.Logger
}

// New creates an assistant with the default rule table.
func New(deps Deps) *Assistant {
	cfg := deps.Config
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	return &Assistant{
		backend: deps.Backend,
		catalog: deps.Catalog,
		gatherer: NewGatherer(deps.Backend, deps.Catalog,
			cfg.Assistant.HistoryConversations, cfg.Assistant.HistoryMessages, deps.Logger),
		router:   NewRouter(nil),
		prompts:  NewPromptBuilder(cfg.Assistant.StoreName, cfg.Assistant.Language),
		llm:      deps.Generator,
		timeout:  cfg.LLM.Timeout,
		messages: cfg.Messages,
		logger:   deps.Logger.With("component", "assistant"),
	}
}

// Reply answers a free text message. Deterministic intents are answered
// without the LLM. It never fails: errors degrade to configured texts.
func (a *Assistant) Reply(ctx context.Context, who domain.Identity, text string) Reply {
	categories, err := a.catalog.Categories(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Categories unavailable for routing", "error", err)
	}

	route := a.router.Match(text, categories)
	if route.Intent != IntentNone {
		a.logger.DebugContext(ctx, "Message routed without LLM", "intent", route.Intent)
		return a.routed(ctx, who, route)
	}

	a.rememberPreference(ctx, who, text)

	g := a.gatherer.Gather(ctx, who.TelegramID)
	prompt := a.prompts.Chat(PromptInput{
		Grounding: g,
		Message:   text,
		FollowUp:  IsFollowUp(text),
		Sentiment: ClassifySentiment(text),
	})
	return a.generate(ctx, prompt)
}

func (a *Assistant) routed(ctx context.Context, who domain.Identity, route Route) Reply {
	switch route.Intent {
	case IntentOrders:
		return a.Orders(ctx, who.TelegramID)

	case IntentCancelHow:
		return Reply{Text: a.messages.CancelHowTo, Source: SourceCancelHowTo}

	case IntentCatalog:
		products, err := a.catalog.Products(ctx)
		if err != nil {
			return Reply{Text: a.messages.BackendUnavailable, Source: SourceUnavailable}
		}
		if len(products) == 0 {
			return Reply{Text: a.messages.NoProducts, Source: SourceCatalog}
		}
		return Reply{Text: a.messages.ProductsHeader + ProductList(products), Source: SourceCatalog}

	case IntentCategory:
		products, err := a.catalog.Products(ctx)
		if err != nil {
			return Reply{Text: a.messages.BackendUnavailable, Source: SourceUnavailable}
		}
		inCategory := CategoryProducts(products, route.Category.ID)
		if len(inCategory) == 0 {
			return Reply{Text: fmt.Sprintf(a.messages.NoCategoryProducts, route.Category.Name), Source: SourceCategory}
		}
		return Reply{
			Text:   fmt.Sprintf(a.messages.CategoryHeader, route.Category.Name) + ProductList(inCategory),
			Source: SourceCategory,
		}
	}
	return Reply{Text: a.messages.GeneralError, Source: SourceFallback}
}

// Orders lists the user's orders, numbered for /cancelar and /quitar.
func (a *Assistant) Orders(ctx context.Context, telegramID int64) Reply {
	orders, err := a.backend.OrdersByUser(ctx, telegramID)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to list orders", "telegram_id", telegramID, "error", err)
		return Reply{Text: a.messages.BackendUnavailable, Source: SourceUnavailable}
	}
	if len(orders) == 0 {
		return Reply{Text: a.messages.NoOrders, Source: SourceOrders}
	}
	return Reply{
		Text:   a.messages.OrdersHeader + OrdersListing(orders) + a.messages.OrdersFooter,
		Source: SourceOrders,
		Orders: orders,
	}
}

// Answer replies to a direct FAQ question.
func (a *Assistant) Answer(ctx context.Context, question string) Reply {
	faqs, err := a.catalog.FAQs(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "FAQ context unavailable", "error", err)
	}
	return a.generate(ctx, a.prompts.FAQ(faqs, question))
}

// Recommend suggests products, taking stored preferences into account.
func (a *Assistant) Recommend(ctx context.Context, telegramID int64) Reply {
	g := a.gatherer.Gather(ctx, telegramID)
	return a.generate(ctx, a.prompts.Recommend(g))
}

// generate calls the LLM under the configured timeout. Any failure yields
// the apology text.
func (a *Assistant) generate(ctx context.Context, prompt string) Reply {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		a.logger.ErrorContext(ctx, "LLM generation failed, using fallback",
			"error", err, "timed_out", errors.Is(err, context.DeadlineExceeded), "duration", time.Since(start))
		return Reply{Text: a.messages.LLMFallback, Source: SourceFallback}
	}
	a.logger.DebugContext(ctx, "LLM reply generated", "duration", time.Since(start), "prompt_chars", len(prompt))
	return Reply{Text: text, Source: SourceLLM}
}

// rememberPreference stores a preference tag found in text on the user's
// profile. Failures are logged only.
func (a *Assistant) rememberPreference(ctx context.Context, who domain.Identity, text string) {
	tag, ok := ExtractPreference(text)
	if !ok {
		return
	}

	user, err := a.backend.UpsertUser(ctx, who)
	if err != nil {
		a.logger.WarnContext(ctx, "Could not load profile for preference", "telegram_id", who.TelegramID, "error", err)
		return
	}
	merged, changed := MergePreferences(user.Preferences, tag)
	if !changed {
		return
	}
	if _, err := a.backend.UpdatePreferences(ctx, user.ID, merged); err != nil {
		a.logger.WarnContext(ctx, "Could not save preference", "telegram_id", who.TelegramID, "tag", tag, "error", err)
		return
	}
	a.logger.InfoContext(ctx, "Preference stored", "telegram_id", who.TelegramID, "preferences", merged)
}

// Record appends the user's message and the bot's reply to the user's open
// conversation. A user or conversation failure aborts before any message is
// written; a message failure is logged and the other message still goes in.
func (a *Assistant) Record(ctx context.Context, who domain.Identity, userText, botText string) error {
	user, err := a.backend.UpsertUser(ctx, who)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", who.TelegramID, err)
	}
	conv, err := a.backend.OpenConversation(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to open conversation for user %d: %w", user.ID, err)
	}

	if _, err := a.backend.CreateMessage(ctx, conv.ID, domain.SenderUser, userText); err != nil {
		a.logger.ErrorContext(ctx, "Failed to log user message", "conversation_id", conv.ID, "error", err)
	}
	if _, err := a.backend.CreateMessage(ctx, conv.ID, domain.SenderBot, botText); err != nil {
		a.logger.ErrorContext(ctx, "Failed to log bot message", "conversation_id", conv.ID, "error", err)
	}
	return nil
}

// EndConversation closes the user's open conversation, if any.
func (a *Assistant) EndConversation(ctx context.Context, telegramID int64) error {
	conv, err := a.backend.OpenConversationOf(ctx, telegramID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return a.backend.CloseConversation(ctx, conv.ID)
}

// Catalog exposes the shared catalog cache.
func (a *Assistant) Catalog() *Catalog {
	return a.catalog
}
