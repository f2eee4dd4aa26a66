package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/techretail/retailbot/internal/domain"
)

// NewReserveHandler returns a handler for /reservar <id> <cantidad>.
func NewReserveHandler(deps HandlerDeps) bot.HandlerFunc {
	return reserveHandler{deps}.Handle
}

type reserveHandler struct {
	deps HandlerDeps
}

func (h reserveHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reserve")
	if !validMessage(update) {
		return
	}

	m := h.deps.messenger(b)
	msg := update.Message
	msgs := h.deps.Config.Messages

	args := commandArgs(msg.Text)
	if len(args) != 2 {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.ReserveUsage)
		return
	}
	nums, ok := positiveInts(args)
	if !ok {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.InvalidNumbers)
		return
	}
	productID, quantity := int64(nums[0]), nums[1]

	order, err := h.deps.Inventory.Reserve(ctx, productID, quantity, identity(msg.From))
	if err != nil {
		log.WarnContext(ctx, "Reservation failed", "user_id", msg.From.ID, "product_id", productID, "quantity", quantity, "error", err)
		respond(ctx, h.deps, m, msg.Chat.ID, backendText(h.deps, err))
		return
	}

	log.InfoContext(ctx, "Reservation stored", "user_id", msg.From.ID, "order_id", order.ID, "product_id", productID, "quantity", quantity)
	name := fmt.Sprintf("#%d", productID)
	for _, item := range order.Items {
		if item.ProductID == productID && item.ProductName != "" {
			name = item.ProductName
		}
	}
	h.deps.Listings.Clear(msg.From.ID)
	h.deps.Assistant.Catalog().Invalidate()
	respond(ctx, h.deps, m, msg.Chat.ID, fmt.Sprintf(msgs.ReserveSuccess, quantity, name, order.ID, domain.FormatMoney(order.TotalAmount)))
}

// NewOrdersHandler returns a handler for /reservas. The numbered listing it
// sends is remembered for /cancelar and /quitar.
func NewOrdersHandler(deps HandlerDeps) bot.HandlerFunc {
	return ordersHandler{deps}.Handle
}

type ordersHandler struct {
	deps HandlerDeps
}

func (h ordersHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update) {
		return
	}
	msg := update.Message
	reply := h.deps.Assistant.Orders(ctx, msg.From.ID)
	if len(reply.Orders) > 0 {
		h.deps.Listings.Put(msg.From.ID, reply.Orders)
	} else {
		h.deps.Listings.Clear(msg.From.ID)
	}
	respond(ctx, h.deps, h.deps.messenger(b), msg.Chat.ID, reply.Text)
}

// NewCancelHandler returns a handler for /cancelar <número>.
func NewCancelHandler(deps HandlerDeps) bot.HandlerFunc {
	return cancelHandler{deps}.Handle
}

type cancelHandler struct {
	deps HandlerDeps
}

func (h cancelHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cancel")
	if !validMessage(update) {
		return
	}

	m := h.deps.messenger(b)
	msg := update.Message
	msgs := h.deps.Config.Messages

	orders, ok := h.deps.Listings.Get(msg.From.ID)
	if !ok {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.CancelNeedsListing)
		return
	}

	args := commandArgs(msg.Text)
	if len(args) != 1 {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.CancelUsage)
		return
	}
	nums, ok := positiveInts(args)
	if !ok || nums[0] > len(orders) {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.InvalidIndex)
		return
	}

	target := orders[nums[0]-1]
	order, err := h.deps.Inventory.CancelOrder(ctx, target.ID)
	if err != nil {
		log.WarnContext(ctx, "Cancellation failed", "user_id", msg.From.ID, "order_id", target.ID, "error", err)
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			respond(ctx, h.deps, m, msg.Chat.ID, fmt.Sprintf(msgs.CancelNotAllowed, target.ID))
		case errors.Is(err, domain.ErrNotFound):
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.OrderNotFound)
		default:
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.BackendUnavailable)
		}
		return
	}

	log.InfoContext(ctx, "Order cancelled", "user_id", msg.From.ID, "order_id", order.ID)
	h.deps.Listings.Update(msg.From.ID, *order)
	h.deps.Assistant.Catalog().Invalidate()
	respond(ctx, h.deps, m, msg.Chat.ID, fmt.Sprintf(msgs.CancelSuccess, order.ID))
}

// NewRemoveItemHandler returns a handler for /quitar <número> <ítem>.
func NewRemoveItemHandler(deps HandlerDeps) bot.HandlerFunc {
	return removeItemHandler{deps}.Handle
}

type removeItemHandler struct {
	deps HandlerDeps
}

func (h removeItemHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "remove_item")
	if !validMessage(update) {
		return
	}

	m := h.deps.messenger(b)
	msg := update.Message
	msgs := h.deps.Config.Messages

	orders, ok := h.deps.Listings.Get(msg.From.ID)
	if !ok {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.CancelNeedsListing)
		return
	}

	args := commandArgs(msg.Text)
	if len(args) != 2 {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.RemoveUsage)
		return
	}
	nums, ok := positiveInts(args)
	if !ok || nums[0] > len(orders) || nums[1] > len(orders[nums[0]-1].Items) {
		respond(ctx, h.deps, m, msg.Chat.ID, msgs.InvalidIndex)
		return
	}

	target := orders[nums[0]-1]
	item := target.Items[nums[1]-1]
	order, err := h.deps.Inventory.RemoveItem(ctx, item.ID)
	if err != nil {
		log.WarnContext(ctx, "Item removal failed", "user_id", msg.From.ID, "item_id", item.ID, "error", err)
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.RemoveNotAllowed)
		case errors.Is(err, domain.ErrNotFound):
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.OrderNotFound)
		default:
			respond(ctx, h.deps, m, msg.Chat.ID, msgs.BackendUnavailable)
		}
		return
	}

	log.InfoContext(ctx, "Item removed", "user_id", msg.From.ID, "order_id", order.ID, "item_id", item.ID, "order_status", order.Status)
	h.deps.Listings.Update(msg.From.ID, *order)
	h.deps.Assistant.Catalog().Invalidate()
	respond(ctx, h.deps, m, msg.Chat.ID, fmt.Sprintf(msgs.RemoveSuccess, item.ProductName, order.ID))
}
