package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/techretail/retailbot/internal/assistant"
	"github.com/techretail/retailbot/internal/domain"
)

// NewProductsHandler returns a handler for /productos.
func NewProductsHandler(deps HandlerDeps) bot.HandlerFunc {
	return productsHandler{deps}.Handle
}

type productsHandler struct {
	deps HandlerDeps
}

func (h productsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "products")
	if !validMessage(update) {
		return
	}

	m := h.deps.messenger(b)
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	products, err := h.deps.Assistant.Catalog().Products(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load products", "error", err)
		respond(ctx, h.deps, m, chatID, msgs.BackendUnavailable)
		return
	}
	if len(products) == 0 {
		respond(ctx, h.deps, m, chatID, msgs.NoProducts)
		return
	}
	if limit := h.deps.Config.Assistant.ListingLimit; limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	respond(ctx, h.deps, m, chatID, msgs.ProductsHeader+assistant.ProductList(products))
}

// NewRecommendHandler returns a handler for /recomendar.
func NewRecommendHandler(deps HandlerDeps) bot.HandlerFunc {
	return recommendHandler{deps}.Handle
}

type recommendHandler struct {
	deps HandlerDeps
}

func (h recommendHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "recommend")
	if !validMessage(update) {
		return
	}

	m := h.deps.messenger(b)
	msg := update.Message
	log.InfoContext(ctx, "Generating recommendation", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	typing(ctx, h.deps, m, msg.Chat.ID)
	reply := h.deps.Assistant.Recommend(ctx, msg.From.ID)
	respondAndRecord(ctx, h.deps, m, msg, msg.Text, reply.Text)
}

// NewQuoteHandler returns a handler for /cotizar <id> <cantidad>.
func NewQuoteHandler(deps HandlerDeps) bot.HandlerFunc {
	return quoteHandler{deps}.Handle
}

type quoteHandler struct {
	deps HandlerDeps
}

func (h quoteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "quote")
	if !validMessage(update) {
		return
	}

	m := h.deps.messenger(b)
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		respond(ctx, h.deps, m, chatID, msgs.QuoteUsage)
		return
	}
	nums, ok := positiveInts(args)
	if !ok {
		respond(ctx, h.deps, m, chatID, msgs.InvalidNumbers)
		return
	}

	product, err := h.deps.Inventory.GetProduct(ctx, int64(nums[0]))
	if err != nil {
		log.WarnContext(ctx, "Quote failed", "product_id", nums[0], "error", err)
		respond(ctx, h.deps, m, chatID, backendText(h.deps, err))
		return
	}

	total := assistant.Quote(*product, nums[1])
	respond(ctx, h.deps, m, chatID, fmt.Sprintf(msgs.QuoteResult,
		nums[1], product.Name, domain.FormatMoney(product.Price), domain.FormatMoney(total)))
}
