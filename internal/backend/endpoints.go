package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/techretail/retailbot/internal/domain"
)

// ProductQuery narrows ListProducts.
type ProductQuery struct {
	Limit    int
	Search   string
	Category int64
	InStock  bool
}

// ListProducts fetches one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	query := url.Values{}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Category > 0 {
		query.Set("category", strconv.FormatInt(q.Category, 10))
	}
	if q.InStock {
		query.Set("in_stock", "true")
	}

	var page domain.Page[domain.Product]
	if err := c.do(ctx, http.MethodGet, "/api/products/", query, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d/", id), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListFAQs fetches up to limit FAQ entries.
func (c *Client) ListFAQs(ctx context.Context, limit int) ([]domain.FAQ, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var page domain.Page[domain.FAQ]
	if err := c.do(ctx, http.MethodGet, "/api/faqs/", query, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// UpsertUser registers the Telegram identity, creating the user on first contact.
func (c *Client) UpsertUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/api/users/", nil, identity, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUser looks a user up by Telegram id. It returns domain.ErrNotFound
// when the user never talked to the bot.
func (c *Client) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	query := url.Values{"telegram_id": {strconv.FormatInt(telegramID, 10)}}
	var page domain.Page[domain.User]
	if err := c.do(ctx, http.MethodGet, "/api/users/", query, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("user with telegram id %d: %w", telegramID, domain.ErrNotFound)
	}
	return &page.Results[0], nil
}

// UpdatePreferences replaces the user's preference tags.
func (c *Client) UpdatePreferences(ctx context.Context, userID int64, preferences string) (*domain.User, error) {
	var user domain.User
	body := map[string]string{"preferences": preferences}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/users/%d/", userID), nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// OpenConversation returns the user's open conversation, creating one if needed.
func (c *Client) OpenConversation(ctx context.Context, userID int64) (*domain.Conversation, error) {
	var conv domain.Conversation
	body := map[string]int64{"user": userID}
	if err := c.do(ctx, http.MethodPost, "/api/conversations/", nil, body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// CloseConversation ends a conversation.
func (c *Client) CloseConversation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/conversations/%d/close/", id), nil, nil, nil)
}

// OpenConversationOf returns the open conversation of a Telegram user, or
// domain.ErrNotFound when there is none.
func (c *Client) OpenConversationOf(ctx context.Context, telegramID int64) (*domain.Conversation, error) {
	convs, err := c.RecentConversations(ctx, telegramID, 1, true)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, fmt.Errorf("open conversation of %d: %w", telegramID, domain.ErrNotFound)
	}
	return &convs[0], nil
}

// RecentConversations lists the user's conversations, newest first.
func (c *Client) RecentConversations(ctx context.Context, telegramID int64, limit int, openOnly bool) ([]domain.Conversation, error) {
	query := url.Values{
		"user__telegram_id": {strconv.FormatInt(telegramID, 10)},
		"ordering":          {"-start_time"},
		"limit":             {strconv.Itoa(limit)},
	}
	if openOnly {
		query.Set("open", "true")
	}
	var page domain.Page[domain.Conversation]
	if err := c.do(ctx, http.MethodGet, "/api/conversations/", query, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// RecentMessages returns up to limit of the newest messages of a conversation, newest first.
func (c *Client) RecentMessages(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error) {
	query := url.Values{
		"conversation": {strconv.FormatInt(conversationID, 10)},
		"ordering":     {"-timestamp"},
		"limit":        {strconv.Itoa(limit)},
	}
	var page domain.Page[domain.Message]
	if err := c.do(ctx, http.MethodGet, "/api/messages/", query, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// CreateMessage appends a turn to a conversation.
func (c *Client) CreateMessage(ctx context.Context, conversationID int64, sender, content string) (*domain.Message, error) {
	body := map[string]any{"conversation": conversationID, "sender": sender, "content": content}
	var message domain.Message
	if err := c.do(ctx, http.MethodPost, "/api/messages/", nil, body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Reserve adds quantity units of a product to the user's cart.
func (c *Client) Reserve(ctx context.Context, productID int64, quantity int, who domain.Identity) (*domain.Order, error) {
	body := struct {
		domain.Identity
		Quantity int `json:"quantity"`
	}{who, quantity}

	var order domain.Order
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/products/%d/reserve/", productID), nil, body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// OrdersByUser lists a Telegram user's orders, newest first. A user unknown
// to the backend has no orders.
func (c *Client) OrdersByUser(ctx context.Context, telegramID int64) ([]domain.Order, error) {
	query := url.Values{"user_id": {strconv.FormatInt(telegramID, 10)}}
	var page domain.Page[domain.Order]
	err := c.do(ctx, http.MethodGet, "/api/orders/by_user/", query, nil, &page)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// GetOrder fetches an order with its items.
func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d/", id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder cancels an order and returns its stock. Idempotent.
func (c *Client) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/orders/%d/cancel/", id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// RemoveItem deletes one order line and returns the updated order.
func (c *Client) RemoveItem(ctx context.Context, itemID int64) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/order-items/%d/", itemID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
