package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Order statuses. Payment happens out of band, so orders start pending.
const (
	OrderStatusPending = "PENDING_PAYMENT"
)

// Order is the persisted outcome of a checkout.
type Order struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	Status       string
	AddressID    string
	Subtotal     float64
	Discount     float64
	ShippingCost float64
	Total        float64
	CreatedAt    pgtype.Timestamptz
}

// OrderItem is one priced line frozen onto an order.
type OrderItem struct {
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	Title     string
	Quantity  int32
	BasePrice float64
	UnitPrice float64
	Subtotal  float64
}

// OrderRepo persists orders inside a transaction.
type OrderRepo struct {
	Pool *pgxpool.Pool
}

// CreateWithItems inserts the order and all of its lines atomically.
func (r OrderRepo) CreateWithItems(ctx context.Context, order Order, items []OrderItem) (Order, error) {
	if r.Pool == nil {
		return Order{}, errors.New("order repo not configured")
	}
	if len(items) == 0 {
		return Order{}, errors.New("order requires at least one item")
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, status, address_id, subtotal, discount, shipping_cost, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		order.UserID, order.Status, order.AddressID,
		order.Subtotal, order.Discount, order.ShippingCost, order.Total)
	if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	for _, item := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, title, quantity, base_price, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			order.ID, item.ProductID, item.Title, item.Quantity,
			item.BasePrice, item.UnitPrice, item.Subtotal); err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return order, nil
}

const orderColumns = `id, user_id, status, address_id, subtotal, discount, shipping_cost, total, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.AddressID,
		&o.Subtotal, &o.Discount, &o.ShippingCost, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// GetForUser returns one order owned by the given user.
func (r OrderRepo) GetForUser(ctx context.Context, id, userID pgtype.UUID) (Order, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	return scanOrder(row)
}

// ListForUser returns the user's orders, newest first.
func (r OrderRepo) ListForUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]Order, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListItems returns the lines of one order.
func (r OrderRepo) ListItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT order_id, product_id, title, quantity, base_price, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY title`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Title, &it.Quantity,
			&it.BasePrice, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
