package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/techretail/retailbot/internal/domain"
)

const orderSelect = `
        SELECT id, user_id, conversation_id, total_amount, status, created_at, updated_at
        FROM orders`

const itemSelect = `
        SELECT oi.id, oi.order_id, oi.product_id, p.name AS product_name, oi.quantity, oi.price
        FROM order_items oi
        JOIN products p ON p.id = oi.product_id`

// Reserve commits quantity units of a product to the user's cart.
// The stock check, the decrement and the item upsert run in one transaction
// while holding the product's lock, so concurrent reservations cannot oversell.
func (s *sqlxStore) Reserve(ctx context.Context, productID int64, quantity int, who domain.Identity) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", domain.ErrValidation)
	}
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product id must be a positive integer", domain.ErrValidation)
	}
	if who.TelegramID <= 0 {
		return nil, fmt.Errorf("%w: telegram_id must be positive", domain.ErrValidation)
	}

	unlock := s.locks.Lock(productID)
	defer unlock()

	var order *domain.Order
	err := s.withTx(ctx, "reserve", func(tx *sqlx.Tx) error {
		user, _, err := upsertUserTx(ctx, tx, who)
		if err != nil {
			return err
		}

		var product domain.Product
		if err := tx.GetContext(ctx, &product, productSelect+" WHERE p.id = ?", productID); err != nil {
			return notFound(err, "product", productID)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
			quantity, now(), productID, quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement stock of product %d: %w", productID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("product %d has %d units, %d requested: %w",
				productID, product.Stock, quantity, domain.ErrInsufficientStock)
		}

		orderID, err := cartOrderTx(ctx, tx, user)
		if err != nil {
			return err
		}

		if err := upsertItemTx(ctx, tx, orderID, &product, quantity); err != nil {
			return err
		}
		if err := recalculateTotalTx(ctx, tx, orderID); err != nil {
			return err
		}

		order, err = loadOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInsufficientStock) && !errors.Is(err, domain.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Reservation failed", "product_id", productID, "quantity", quantity, "error", err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Reserved product",
		"product_id", productID, "quantity", quantity, "order_id", order.ID, "telegram_id", who.TelegramID)
	return order, nil
}

// cartOrderTx returns the user's pending cart order, creating one when the
// cart pointer is unset or points to an order that left the pending state.
func cartOrderTx(ctx context.Context, tx *sqlx.Tx, user *domain.User) (int64, error) {
	if user.CartOrderID != nil {
		var status domain.OrderStatus
		err := tx.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = ?`, *user.CartOrderID)
		switch {
		case err == nil && status == domain.StatusPending:
			return *user.CartOrderID, nil
		case err == nil, errors.Is(err, sql.ErrNoRows):
		default:
			return 0, fmt.Errorf("failed to load cart order %d: %w", *user.CartOrderID, err)
		}
	}

	var conversationID *int64
	var openID int64
	err := tx.GetContext(ctx, &openID,
		`SELECT id FROM conversations WHERE user_id = ? AND end_time IS NULL ORDER BY id DESC LIMIT 1`, user.ID)
	switch {
	case err == nil:
		conversationID = &openID
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("failed to look up open conversation: %w", err)
	}

	ts := now()
	result, err := tx.ExecContext(ctx, `
        INSERT INTO orders (user_id, conversation_id, total_amount, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, conversationID, decimal.Zero, domain.StatusPending, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to create cart order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new order id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET cart_order_id = ? WHERE id = ?`, orderID, user.ID); err != nil {
		return 0, fmt.Errorf("failed to set cart of user %d: %w", user.ID, err)
	}
	return orderID, nil
}

// upsertItemTx adds quantity to the order's line for the product. An existing
// line keeps the price it was first reserved at.
func upsertItemTx(ctx context.Context, tx *sqlx.Tx, orderID int64, product *domain.Product, quantity int) error {
	var itemID int64
	err := tx.GetContext(ctx, &itemID,
		`SELECT id FROM order_items WHERE order_id = ? AND product_id = ?`, orderID, product.ID)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			`UPDATE order_items SET quantity = quantity + ? WHERE id = ?`, quantity, itemID); err != nil {
			return fmt.Errorf("failed to update order item %d: %w", itemID, err)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return fmt.Errorf("failed to look up order item: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`,
		orderID, product.ID, quantity, product.Price); err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

// recalculateTotalTx stores the sum of the order's items as its total.
func recalculateTotalTx(ctx context.Context, tx *sqlx.Tx, orderID int64) error {
	items, err := loadItems(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET total_amount = ?, updated_at = ? WHERE id = ?`,
		domain.SumItems(items), now(), orderID); err != nil {
		return fmt.Errorf("failed to update total of order %d: %w", orderID, err)
	}
	return nil
}

// restoreStockTx returns every item's quantity to its product.
func restoreStockTx(ctx context.Context, tx *sqlx.Tx, items []domain.OrderItem) error {
	ts := now()
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
			item.Quantity, ts, item.ProductID); err != nil {
			return fmt.Errorf("failed to restore stock of product %d: %w", item.ProductID, err)
		}
	}
	return nil
}

func clearCartTx(ctx context.Context, tx *sqlx.Tx, orderID int64) error {
	if _, err := tx.ExecContext(ctx, `UPDATE users SET cart_order_id = NULL WHERE cart_order_id = ?`, orderID); err != nil {
		return fmt.Errorf("failed to clear cart pointing to order %d: %w", orderID, err)
	}
	return nil
}

func setStatusTx(ctx context.Context, tx *sqlx.Tx, orderID int64, status domain.OrderStatus) error {
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, now(), orderID); err != nil {
		return fmt.Errorf("failed to set status of order %d: %w", orderID, err)
	}
	return nil
}

// GetOrder loads an order with its items.
func (s *sqlxStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return loadOrder(ctx, s.db, id)
}

// ListOrdersByTelegramID returns the user's orders, newest first, with items.
func (s *sqlxStore) ListOrdersByTelegramID(ctx context.Context, telegramID int64) ([]domain.Order, error) {
	user, err := s.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	orders := []domain.Order{}
	if err := s.db.SelectContext(ctx, &orders, orderSelect+" WHERE user_id = ? ORDER BY id DESC", user.ID); err != nil {
		return nil, fmt.Errorf("failed to list orders of user %d: %w", user.ID, err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	query, args, err := sqlx.In(itemSelect+" WHERE oi.order_id IN (?) ORDER BY oi.id", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build items query: %w", err)
	}
	var items []domain.OrderItem
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	byOrder := make(map[int64][]domain.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return orders, nil
}

// CancelOrder restores the stock of every item and marks the order cancelled.
// Cancelling a cancelled order is a no-op, so stock is never refunded twice.
func (s *sqlxStore) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	unlock, err := s.lockOrderProducts(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var order *domain.Order
	var changed bool
	err = s.withTx(ctx, "cancel_order", func(tx *sqlx.Tx) error {
		var err error
		order, changed, err = cancelOrderTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.InfoContext(ctx, "Cancelled order", "order_id", id, "items", len(order.Items))
	}
	return order, nil
}

func cancelOrderTx(ctx context.Context, tx *sqlx.Tx, id int64) (*domain.Order, bool, error) {
	order, err := loadOrder(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if order.Status == domain.StatusCancelled {
		return order, false, nil
	}
	if !domain.CanTransition(order.Status, domain.StatusCancelled) {
		return nil, false, fmt.Errorf("order %d is %s: %w", id, order.Status, domain.ErrInvalidTransition)
	}

	if err := restoreStockTx(ctx, tx, order.Items); err != nil {
		return nil, false, err
	}
	if err := setStatusTx(ctx, tx, id, domain.StatusCancelled); err != nil {
		return nil, false, err
	}
	if err := clearCartTx(ctx, tx, id); err != nil {
		return nil, false, err
	}

	order, err = loadOrder(ctx, tx, id)
	return order, true, err
}

// RemoveItem returns an item's stock, deletes it and recomputes the order total.
// Removing the last item leaves the order cancelled with a zero total.
func (s *sqlxStore) RemoveItem(ctx context.Context, itemID int64) (*domain.Order, error) {
	var productID int64
	if err := s.db.GetContext(ctx, &productID, `SELECT product_id FROM order_items WHERE id = ?`, itemID); err != nil {
		return nil, notFound(err, "order item", itemID)
	}

	unlock := s.locks.Lock(productID)
	defer unlock()

	var order *domain.Order
	err := s.withTx(ctx, "remove_item", func(tx *sqlx.Tx) error {
		var item domain.OrderItem
		if err := tx.GetContext(ctx, &item, itemSelect+" WHERE oi.id = ?", itemID); err != nil {
			return notFound(err, "order item", itemID)
		}

		var status domain.OrderStatus
		if err := tx.GetContext(ctx, &status, `SELECT status FROM orders WHERE id = ?`, item.OrderID); err != nil {
			return notFound(err, "order", item.OrderID)
		}
		if status != domain.StatusPending {
			return fmt.Errorf("order %d is %s: %w", item.OrderID, status, domain.ErrInvalidTransition)
		}

		if err := restoreStockTx(ctx, tx, []domain.OrderItem{item}); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE id = ?`, itemID); err != nil {
			return fmt.Errorf("failed to delete order item %d: %w", itemID, err)
		}

		var remaining int
		if err := tx.GetContext(ctx, &remaining, `SELECT COUNT(*) FROM order_items WHERE order_id = ?`, item.OrderID); err != nil {
			return fmt.Errorf("failed to count items of order %d: %w", item.OrderID, err)
		}
		if remaining == 0 {
			if err := setStatusTx(ctx, tx, item.OrderID, domain.StatusCancelled); err != nil {
				return err
			}
			if err := clearCartTx(ctx, tx, item.OrderID); err != nil {
				return err
			}
		}
		if err := recalculateTotalTx(ctx, tx, item.OrderID); err != nil {
			return err
		}

		var err error
		order, err = loadOrder(ctx, tx, item.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Removed order item", "item_id", itemID, "order_id", order.ID, "status", order.Status)
	return order, nil
}

// UpdateOrderStatus moves an order along its state machine. Moving to
// cancelled restores stock through CancelOrder.
func (s *sqlxStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if status == domain.StatusCancelled {
		return s.CancelOrder(ctx, id)
	}
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.withTx(ctx, "update_order_status", func(tx *sqlx.Tx) error {
		current, err := loadOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status == status {
			order = current
			return nil
		}
		if !domain.CanTransition(current.Status, status) {
			return fmt.Errorf("order %d cannot move from %s to %s: %w", id, current.Status, status, domain.ErrInvalidTransition)
		}
		if err := setStatusTx(ctx, tx, id, status); err != nil {
			return err
		}
		if current.Status == domain.StatusPending {
			if err := clearCartTx(ctx, tx, id); err != nil {
				return err
			}
		}
		order, err = loadOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder removes a pending or cancelled order. Pending orders return
// their stock first.
func (s *sqlxStore) DeleteOrder(ctx context.Context, id int64) error {
	unlock, err := s.lockOrderProducts(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	return s.withTx(ctx, "delete_order", func(tx *sqlx.Tx) error {
		order, err := loadOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		switch order.Status {
		case domain.StatusPending:
			if err := restoreStockTx(ctx, tx, order.Items); err != nil {
				return err
			}
		case domain.StatusCancelled:
		default:
			return fmt.Errorf("order %d is %s: %w", id, order.Status, domain.ErrInvalidTransition)
		}

		if err := clearCartTx(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete items of order %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete order %d: %w", id, err)
		}
		return nil
	})
}

// lockOrderProducts takes the locks of every product referenced by the order.
func (s *sqlxStore) lockOrderProducts(ctx context.Context, orderID int64) (func(), error) {
	var productIDs []int64
	if err := s.db.SelectContext(ctx, &productIDs,
		`SELECT product_id FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return nil, fmt.Errorf("failed to load products of order %d: %w", orderID, err)
	}
	return s.locks.Lock(productIDs...), nil
}

func loadOrder(ctx context.Context, q sqlx.QueryerContext, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := sqlx.GetContext(ctx, q, &order, orderSelect+" WHERE id = ?", id); err != nil {
		return nil, notFound(err, "order", id)
	}
	items, err := loadItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func loadItems(ctx context.Context, q sqlx.QueryerContext, orderID int64) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	if err := sqlx.SelectContext(ctx, q, &items, itemSelect+" WHERE oi.order_id = ? ORDER BY oi.id", orderID); err != nil {
		return nil, fmt.Errorf("failed to load items of order %d: %w", orderID, err)
	}
	return items, nil
}
