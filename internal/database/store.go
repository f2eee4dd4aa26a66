package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/techretail/retailbot/internal/domain"
	"github.com/techretail/retailbot/internal/logger"
)

// Store defines the inventory operations. Methods accept context.Context for
// cancellation and timeouts, and report missing rows as domain.ErrNotFound.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	CatalogStore
	UserStore
	ConversationStore
	OrderStore
}

// CatalogStore covers products, categories and FAQs.
type CatalogStore interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	CreateProduct(ctx context.Context, product *domain.Product) error
	ListFAQs(ctx context.Context, page Page) ([]domain.FAQ, int, error)
	CreateFAQCategory(ctx context.Context, category *domain.FAQCategory) error
	CreateFAQ(ctx context.Context, faq *domain.FAQ) error
}

// UserStore covers customer records.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	// UpsertUser creates the user on first contact or refreshes its profile
	// fields. The boolean reports whether a new row was created.
	UpsertUser(ctx context.Context, identity domain.Identity) (*domain.User, bool, error)
	UpdatePreferences(ctx context.Context, userID int64, preferences string) (*domain.User, error)
}

// ConversationStore covers conversations and their messages.
type ConversationStore interface {
	// OpenConversation returns the user's open conversation, creating one if needed.
	OpenConversation(ctx context.Context, userID int64) (*domain.Conversation, bool, error)
	GetConversation(ctx context.Context, id int64) (*domain.Conversation, error)
	ListConversations(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, int, error)
	CloseConversation(ctx context.Context, id int64) (*domain.Conversation, error)
	// CloseIdleConversations closes open conversations with no activity since cutoff.
	CloseIdleConversations(ctx context.Context, cutoff time.Time) (int, error)
	AppendMessage(ctx context.Context, message *domain.Message) error
	ListMessages(ctx context.Context, filter MessageFilter) ([]domain.Message, int, error)
}

// OrderStore covers the reservation flow.
type OrderStore interface {
	Reserve(ctx context.Context, productID int64, quantity int, who domain.Identity) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrdersByTelegramID(ctx context.Context, telegramID int64) ([]domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (*domain.Order, error)
	RemoveItem(ctx context.Context, itemID int64) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// Page bounds a list query. Limit <= 0 means the store default.
type Page struct {
	Limit  int
	Offset int
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Page
	CategoryID *int64
	Search     string
	InStock    bool
}

// ConversationFilter narrows ListConversations.
type ConversationFilter struct {
	Page
	UserID      int64
	TelegramID  int64
	OpenOnly    bool
	NewestFirst bool
}

// MessageFilter narrows ListMessages.
type MessageFilter struct {
	Page
	ConversationID int64
	NewestFirst    bool
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 500
)

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	} else if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	locks  *keyedMutex
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, log *slog.Logger) Store {
	if log == nil {
		log = logger.Discard()
	}
	return &sqlxStore{
		db:     db,
		logger: log.With("component", "store"),
		locks:  newKeyedMutex(),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunSQLMaintenance reclaims free pages and refreshes planner statistics.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Running SQL maintenance")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error. Code inside fn must only use tx: the pool has a single connection.
func (s *sqlxStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "operation", op, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "operation", op, "error", rollbackErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "operation", op, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

// notFound converts sql.ErrNoRows into domain.ErrNotFound.
func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %d: %w", what, id, err)
}
