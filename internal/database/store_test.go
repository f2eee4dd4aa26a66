package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techretail/retailbot/internal/database"
	"github.com/techretail/retailbot/internal/domain"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func seedProduct(t *testing.T, store database.Store, name, price string, stock int) *domain.Product {
	t.Helper()

	product := &domain.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, store.CreateProduct(context.Background(), product))
	return product
}

func stockOf(t *testing.T, store database.Store, id int64) int {
	t.Helper()

	product, err := store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	laptops := &domain.Category{Name: "Laptops"}
	require.NoError(t, store.CreateCategory(ctx, laptops))

	require.NoError(t, store.CreateProduct(ctx, &domain.Product{
		Name: "Laptop Pro", Price: decimal.RequireFromString("1200.00"), Stock: 3, CategoryID: &laptops.ID,
	}))
	seedProduct(t, store, "Mouse", "15.50", 0)
	seedProduct(t, store, "Teclado", "45.00", 10)

	t.Run("list all", func(t *testing.T) {
		products, total, err := store.ListProducts(ctx, database.ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, products, 3)
		assert.Equal(t, "Laptops", products[0].CategoryName)
		assert.Equal(t, "1200.00", domain.FormatMoney(products[0].Price))
	})

	t.Run("pagination", func(t *testing.T) {
		products, total, err := store.ListProducts(ctx, database.ProductFilter{Page: database.Page{Limit: 1, Offset: 1}})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, products, 1)
		assert.Equal(t, "Mouse", products[0].Name)
	})

	t.Run("in stock and category filters", func(t *testing.T) {
		products, total, err := store.ListProducts(ctx, database.ProductFilter{InStock: true})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, products, 2)

		products, _, err = store.ListProducts(ctx, database.ProductFilter{CategoryID: &laptops.ID})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Laptop Pro", products[0].Name)
	})

	t.Run("search", func(t *testing.T) {
		products, _, err := store.ListProducts(ctx, database.ProductFilter{Search: "tecla"})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Teclado", products[0].Name)
	})

	t.Run("missing product", func(t *testing.T) {
		_, err := store.GetProduct(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("faqs", func(t *testing.T) {
		shipping := &domain.FAQCategory{Name: "Envíos"}
		require.NoError(t, store.CreateFAQCategory(ctx, shipping))
		require.NoError(t, store.CreateFAQ(ctx, &domain.FAQ{
			Question: "¿Hacen envíos?", Answer: "Sí, a todo el país.", CategoryID: &shipping.ID,
		}))

		faqs, total, err := store.ListFAQs(ctx, database.Page{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, faqs, 1)
		assert.Equal(t, "Envíos", faqs[0].CategoryName)
	})
}

func TestUpsertUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, created, err := store.UpsertUser(ctx, domain.Identity{TelegramID: 10, FirstName: "Ana"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.UpsertUser(ctx, domain.Identity{TelegramID: 10, FirstName: "Ana", Username: "ana"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "ana", again.Username)

	updated, err := store.UpdatePreferences(ctx, user.ID, "gaming,portátil")
	require.NoError(t, err)
	assert.Equal(t, "gaming,portátil", updated.Preferences)

	_, _, err = store.UpsertUser(ctx, domain.Identity{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = store.GetUserByTelegramID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, _, err := store.UpsertUser(ctx, domain.Identity{TelegramID: 20})
	require.NoError(t, err)

	t.Run("open conversation is reused until closed", func(t *testing.T) {
		first, created, err := store.OpenConversation(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := store.OpenConversation(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		closed, err := store.CloseConversation(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, closed.Open())

		third, created, err := store.OpenConversation(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, first.ID, third.ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := store.OpenConversation(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("messages keep insertion order", func(t *testing.T) {
		conv, _, err := store.OpenConversation(ctx, user.ID)
		require.NoError(t, err)

		for _, m := range []domain.Message{
			{ConversationID: conv.ID, Sender: domain.SenderUser, Content: "hola"},
			{ConversationID: conv.ID, Sender: domain.SenderBot, Content: "¡hola!"},
			{ConversationID: conv.ID, Sender: domain.SenderUser, Content: "precio?"},
		} {
			require.NoError(t, store.AppendMessage(ctx, &m))
		}

		latest, total, err := store.ListMessages(ctx, database.MessageFilter{
			ConversationID: conv.ID, NewestFirst: true, Page: database.Page{Limit: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, latest, 2)
		assert.Equal(t, "precio?", latest[0].Content)
		assert.Equal(t, "¡hola!", latest[1].Content)
	})

	t.Run("message validation", func(t *testing.T) {
		err := store.AppendMessage(ctx, &domain.Message{ConversationID: 1, Sender: "system", Content: "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		err = store.AppendMessage(ctx, &domain.Message{ConversationID: 9999, Sender: domain.SenderUser, Content: "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list by telegram id", func(t *testing.T) {
		convs, total, err := store.ListConversations(ctx, database.ConversationFilter{TelegramID: 20, NewestFirst: true})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, convs, 2)
		assert.Greater(t, convs[0].ID, convs[1].ID)
	})

	t.Run("idle conversations are closed", func(t *testing.T) {
		closed, err := store.CloseIdleConversations(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, closed)

		open, _, err := store.ListConversations(ctx, database.ConversationFilter{UserID: user.ID, OpenOnly: true})
		require.NoError(t, err)
		assert.Empty(t, open)
	})
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	assert.NoError(t, store.RunSQLMaintenance(context.Background()))
}
