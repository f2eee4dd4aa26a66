// Package domain holds the retail entities shared by the inventory store,
// the REST API and the bot's backend client.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Category groups catalog products.
type Category struct {
	ID          int64  `db:"id"          json:"id"          yaml:"id"`
	Name        string `db:"name"        json:"name"        yaml:"name"`
	Description string `db:"description" json:"description" yaml:"description"`
}

// Product is a catalog item. Stock is never negative.
type Product struct {
	ID           int64           `db:"id"            json:"id"`
	Name         string          `db:"name"          json:"name"`
	Description  string          `db:"description"   json:"description"`
	Price        decimal.Decimal `db:"price"         json:"price"`
	CategoryID   *int64          `db:"category_id"   json:"category"`
	CategoryName string          `db:"category_name" json:"category_name"`
	ImageURL     string          `db:"image_url"     json:"image_url"`
	Stock        int             `db:"stock"         json:"stock"`
	CreatedAt    time.Time       `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"    json:"updated_at"`
}

// User maps a Telegram identity to an internal record.
type User struct {
	ID          int64     `db:"id"            json:"id"`
	TelegramID  int64     `db:"telegram_id"   json:"telegram_id"`
	Username    string    `db:"username"      json:"username"`
	FirstName   string    `db:"first_name"    json:"first_name"`
	LastName    string    `db:"last_name"     json:"last_name"`
	Preferences string    `db:"preferences"   json:"preferences"`
	CartOrderID *int64    `db:"cart_order_id" json:"cart_order_id"`
	CreatedAt   time.Time `db:"created_at"    json:"created_at"`
}

// DisplayName returns the best human readable name for the user.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return "cliente"
	}
}

// Identity carries the Telegram profile fields sent with every write.
type Identity struct {
	TelegramID int64  `json:"telegram_id" binding:"required,gt=0"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// Conversation scopes a set of messages for one user. EndTime is nil while open.
type Conversation struct {
	ID           int64      `db:"id"            json:"id"`
	UserID       int64      `db:"user_id"       json:"user"`
	StartTime    time.Time  `db:"start_time"    json:"start_time"`
	EndTime      *time.Time `db:"end_time"      json:"end_time"`
	LastActivity time.Time  `db:"last_activity" json:"last_activity"`
}

// Open reports whether the conversation still accepts messages.
func (c Conversation) Open() bool {
	return c.EndTime == nil
}

// Message is one append-only turn of a conversation.
type Message struct {
	ID             int64     `db:"id"              json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversation"`
	Sender         string    `db:"sender"          json:"sender"`
	Content        string    `db:"content"         json:"content"`
	Timestamp      time.Time `db:"timestamp"       json:"timestamp"`
}

// Order is a reservation cart. TotalAmount always equals the sum of its items.
type Order struct {
	ID             int64           `db:"id"              json:"id"`
	UserID         int64           `db:"user_id"         json:"user"`
	ConversationID *int64          `db:"conversation_id" json:"conversation"`
	TotalAmount    decimal.Decimal `db:"total_amount"    json:"total_amount"`
	Status         OrderStatus     `db:"status"          json:"status"`
	CreatedAt      time.Time       `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"      json:"updated_at"`
	Items          []OrderItem     `db:"-"               json:"items"`
}

// ItemsTotal sums price times quantity over the order's items.
func (o Order) ItemsTotal() decimal.Decimal {
	return SumItems(o.Items)
}

// OrderItem is a line of an order. Price is fixed at the time of the first reservation.
type OrderItem struct {
	ID          int64           `db:"id"           json:"id"`
	OrderID     int64           `db:"order_id"     json:"order"`
	ProductID   int64           `db:"product_id"   json:"product"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity"     json:"quantity"`
	Price       decimal.Decimal `db:"price"        json:"price"`
}

// Subtotal returns price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems totals a list of order items.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// FAQCategory groups FAQs.
type FAQCategory struct {
	ID   int64  `db:"id"   json:"id"   yaml:"id"`
	Name string `db:"name" json:"name" yaml:"name"`
}

// FAQ is a question/answer pair used verbatim as grounding context.
type FAQ struct {
	ID           int64  `db:"id"            json:"id"`
	Question     string `db:"question"      json:"question"`
	Answer       string `db:"answer"        json:"answer"`
	CategoryID   *int64 `db:"category_id"   json:"category"`
	CategoryName string `db:"category_name" json:"category_name"`
}

// Page is the paginated envelope used by every list endpoint.
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
