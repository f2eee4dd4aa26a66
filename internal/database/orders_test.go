package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techretail/retailbot/internal/domain"
)

var ana = domain.Identity{TelegramID: 100, Username: "ana", FirstName: "Ana"}

func assertTotalMatchesItems(t *testing.T, order *domain.Order) {
	t.Helper()
	assert.True(t, order.TotalAmount.Equal(order.ItemsTotal()),
		"total %s != items %s", order.TotalAmount, order.ItemsTotal())
}

func TestReserve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reserve then deny when stock runs short", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		product := seedProduct(t, store, "Monitor", "10.00", 5)

		order, err := store.Reserve(ctx, product.ID, 3, ana)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, order.Status)
		assert.Equal(t, "30.00", domain.FormatMoney(order.TotalAmount))
		assert.Equal(t, 2, stockOf(t, store, product.ID))
		assertTotalMatchesItems(t, order)

		_, err = store.Reserve(ctx, product.ID, 3, ana)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, 2, stockOf(t, store, product.ID))

		unchanged, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "30.00", domain.FormatMoney(unchanged.TotalAmount))
	})

	t.Run("same product accumulates on one line", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		product := seedProduct(t, store, "Cable", "2.50", 10)

		first, err := store.Reserve(ctx, product.ID, 1, ana)
		require.NoError(t, err)
		second, err := store.Reserve(ctx, product.ID, 2, ana)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		require.Len(t, second.Items, 1)
		assert.Equal(t, 3, second.Items[0].Quantity)
		assert.Equal(t, "Cable", second.Items[0].ProductName)
		assert.Equal(t, "7.50", domain.FormatMoney(second.TotalAmount))
		assert.Equal(t, 7, stockOf(t, store, product.ID))
	})

	t.Run("different users get different carts", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		product := seedProduct(t, store, "Funda", "5.00", 10)

		a, err := store.Reserve(ctx, product.ID, 1, ana)
		require.NoError(t, err)
		b, err := store.Reserve(ctx, product.ID, 1, domain.Identity{TelegramID: 200})
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("validation and missing product", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		product := seedProduct(t, store, "Disco", "80.00", 1)

		_, err := store.Reserve(ctx, product.ID, 0, ana)
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = store.Reserve(ctx, product.ID, -2, ana)
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = store.Reserve(ctx, 999, 1, ana)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		assert.Equal(t, 1, stockOf(t, store, product.ID))
	})
}

func TestReserveConcurrentNeverOversells(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	product := seedProduct(t, store, "Consola", "300.00", 5)

	const buyers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, denied := 0, 0

	for i := range buyers {
		wg.Add(1)
		go func(telegramID int64) {
			defer wg.Done()
			_, err := store.Reserve(ctx, product.ID, 1, domain.Identity{TelegramID: telegramID})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				denied++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(1000 + i))
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, buyers-5, denied)
	assert.Equal(t, 0, stockOf(t, store, product.ID))
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		product := seedProduct(t, store, "Monitor", "10.00", 5)

		order, err := store.Reserve(ctx, product.ID, 3, ana)
		require.NoError(t, err)

		cancelled, err := store.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.Equal(t, 5, stockOf(t, store, product.ID))
		assertTotalMatchesItems(t, cancelled)

		again, err := store.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, again.Status)
		assert.Equal(t, 5, stockOf(t, store, product.ID))
	})

	t.Run("cancelled cart is replaced on next reservation", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		product := seedProduct(t, store, "Parlante", "20.00", 5)

		order, err := store.Reserve(ctx, product.ID, 1, ana)
		require.NoError(t, err)
		_, err = store.CancelOrder(ctx, order.ID)
		require.NoError(t, err)

		next, err := store.Reserve(ctx, product.ID, 1, ana)
		require.NoError(t, err)
		assert.NotEqual(t, order.ID, next.ID)
		assert.Equal(t, domain.StatusPending, next.Status)
	})

	t.Run("delivered orders cannot be cancelled", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		product := seedProduct(t, store, "Router", "50.00", 5)

		order, err := store.Reserve(ctx, product.ID, 1, ana)
		require.NoError(t, err)
		for _, status := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped, domain.StatusDelivered} {
			_, err = store.UpdateOrderStatus(ctx, order.ID, status)
			require.NoError(t, err)
		}

		_, err = store.CancelOrder(ctx, order.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, 4, stockOf(t, store, product.ID))
	})

	t.Run("missing order", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		_, err := store.CancelOrder(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	monitor := seedProduct(t, store, "Monitor", "10.00", 5)
	mouse := seedProduct(t, store, "Mouse", "4.25", 5)

	_, err := store.Reserve(ctx, monitor.ID, 2, ana)
	require.NoError(t, err)
	order, err := store.Reserve(ctx, mouse.ID, 2, ana)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "28.50", domain.FormatMoney(order.TotalAmount))

	order, err = store.RemoveItem(ctx, order.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "8.50", domain.FormatMoney(order.TotalAmount))
	assert.Equal(t, 5, stockOf(t, store, monitor.ID))
	assertTotalMatchesItems(t, order)

	order, err = store.RemoveItem(ctx, order.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, order.Status)
	assert.Empty(t, order.Items)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Equal(t, 5, stockOf(t, store, mouse.ID))

	_, err = store.RemoveItem(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	product := seedProduct(t, store, "Tablet", "150.00", 5)

	order, err := store.Reserve(ctx, product.ID, 1, ana)
	require.NoError(t, err)

	_, err = store.UpdateOrderStatus(ctx, order.ID, domain.StatusDelivered)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	processing, err := store.UpdateOrderStatus(ctx, order.ID, domain.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, processing.Status)

	_, err = store.RemoveItem(ctx, processing.Items[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	next, err := store.Reserve(ctx, product.ID, 1, ana)
	require.NoError(t, err)
	assert.NotEqual(t, order.ID, next.ID, "an order leaving pending must not stay the cart")

	cancelled, err := store.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 4, stockOf(t, store, product.ID))

	_, err = store.UpdateOrderStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteAndListOrders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	product := seedProduct(t, store, "Webcam", "30.00", 5)

	order, err := store.Reserve(ctx, product.ID, 2, ana)
	require.NoError(t, err)

	orders, err := store.ListOrdersByTelegramID(ctx, ana.TelegramID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Webcam", orders[0].Items[0].ProductName)

	require.NoError(t, store.DeleteOrder(ctx, order.ID))
	assert.Equal(t, 5, stockOf(t, store, product.ID))

	_, err = store.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	orders, err = store.ListOrdersByTelegramID(ctx, ana.TelegramID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = store.ListOrdersByTelegramID(ctx, 555)
	assert.ErrorIs(t, err, domain.ErrNotFound)

}
