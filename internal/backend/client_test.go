package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techretail/retailbot/internal/api"
	"github.com/techretail/retailbot/internal/backend"
	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/database"
	"github.com/techretail/retailbot/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newBackend starts the real API over a temp database and returns a client for it.
func newBackend(t *testing.T, secret string) (*backend.Client, database.Store) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "backend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)

	server := httptest.NewServer(api.NewServer(config.APIConfig{AuthSecret: secret, MaxPageSize: 100}, store, nil).Handler())
	t.Cleanup(server.Close)

	client, err := backend.NewClient(config.BackendConfig{BaseURL: server.URL, AuthSecret: secret, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return client, store
}

func TestClientAgainstAPI(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, store := newBackend(t, "shared-secret")

	product := &domain.Product{Name: "Monitor", Price: decimal.RequireFromString("10.00"), Stock: 5}
	require.NoError(t, store.CreateProduct(ctx, product))
	require.NoError(t, store.CreateFAQ(ctx, &domain.FAQ{Question: "¿Horario?", Answer: "9 a 18"}))

	products, err := client.ListProducts(ctx, backend.ProductQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("10")))

	faqs, err := client.ListFAQs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, faqs, 1)

	who := domain.Identity{TelegramID: 77, FirstName: "Ana"}
	user, err := client.UpsertUser(ctx, who)
	require.NoError(t, err)

	conv, err := client.OpenConversation(ctx, user.ID)
	require.NoError(t, err)
	_, err = client.CreateMessage(ctx, conv.ID, domain.SenderUser, "hola")
	require.NoError(t, err)
	_, err = client.CreateMessage(ctx, conv.ID, domain.SenderBot, "¡hola!")
	require.NoError(t, err)

	messages, err := client.RecentMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.SenderBot, messages[0].Sender)

	open, err := client.OpenConversationOf(ctx, who.TelegramID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, open.ID)

	order, err := client.Reserve(ctx, product.ID, 3, who)
	require.NoError(t, err)
	assert.Equal(t, "30.00", domain.FormatMoney(order.TotalAmount))
	require.NotNil(t, order.ConversationID)
	assert.Equal(t, conv.ID, *order.ConversationID)

	_, err = client.Reserve(ctx, product.ID, 3, who)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = client.Reserve(ctx, 999, 1, who)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	orders, err := client.OrdersByUser(ctx, who.TelegramID)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	cancelled, err := client.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = client.RemoveItem(ctx, order.Items[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	orders, err = client.OrdersByUser(ctx, 123456)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = client.FindUser(ctx, 123456)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, client.CloseConversation(ctx, conv.ID))
	_, err = client.OpenConversationOf(ctx, who.TelegramID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientWrongSecretIsUnavailable(t *testing.T) {
	t.Parallel()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "backend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	server := httptest.NewServer(api.NewServer(config.APIConfig{AuthSecret: "right"}, database.NewStore(db, nil), nil).Handler())
	t.Cleanup(server.Close)

	client, err := backend.NewClient(config.BackendConfig{BaseURL: server.URL, AuthSecret: "wrong", Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = client.ListFAQs(context.Background(), 5)
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestClientTransportFailures(t *testing.T) {
	t.Parallel()

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)

		client, err := backend.NewClient(config.BackendConfig{BaseURL: server.URL, Timeout: time.Second}, nil)
		require.NoError(t, err)
		_, err = client.ListProducts(context.Background(), backend.ProductQuery{})
		assert.ErrorIs(t, err, backend.ErrUnavailable)
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := backend.NewClient(config.BackendConfig{BaseURL: url, Timeout: time.Second}, nil)
		require.NoError(t, err)
		_, err = client.ListFAQs(context.Background(), 5)
		assert.ErrorIs(t, err, backend.ErrUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		t.Cleanup(server.Close)

		client, err := backend.NewClient(config.BackendConfig{BaseURL: server.URL, Timeout: time.Second}, nil)
		require.NoError(t, err)
		_, err = client.ListFAQs(context.Background(), 5)
		assert.ErrorIs(t, err, backend.ErrUnavailable)
	})

	t.Run("invalid base url", func(t *testing.T) {
		t.Parallel()
		_, err := backend.NewClient(config.BackendConfig{BaseURL: "not a url"}, nil)
		assert.Error(t, err)
	})
}
