package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, customer_id, location_id, restaurant_id, order_date, status, payment_method, notes,
	fingerprint, order_seq, order_number, total_amount, created_at, status_updated_at,
	confirmed_at, prepared_at, delivered_at, cancelled_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.LocationID,
		&o.RestaurantID,
		&o.OrderDate,
		&o.Status,
		&o.PaymentMethod,
		&o.Notes,
		&o.Fingerprint,
		&o.OrderSeq,
		&o.OrderNumber,
		&o.TotalAmount,
		&o.CreatedAt,
		&o.StatusUpdatedAt,
		&o.ConfirmedAt,
		&o.PreparedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
	)
	return o, err
}

func (q *Queries) scanOrders(ctx context.Context, sql string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
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

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderByCustomerAndDate = `
SELECT ` + orderColumns + `
FROM orders
WHERE customer_id = $1 AND order_date = $2`

type GetOrderByCustomerAndDateParams struct {
	CustomerID uuid.UUID
	OrderDate  time.Time
}

func (q *Queries) GetOrderByCustomerAndDate(ctx context.Context, arg GetOrderByCustomerAndDateParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByCustomerAndDate, arg.CustomerID, arg.OrderDate))
}

// GetNextOrderSeq computes the next per-date sequence inside the calling
// transaction. Concurrent transactions can read the same value; the
// unique index on (order_date, order_seq) is the correctness backstop
// and the caller retries on conflict.
const getNextOrderSeq = `
SELECT COALESCE(MAX(order_seq), 0) + 1
FROM orders
WHERE order_date = $1`

func (q *Queries) GetNextOrderSeq(ctx context.Context, orderDate time.Time) (int32, error) {
	var seq int32
	err := q.db.QueryRow(ctx, getNextOrderSeq, orderDate).Scan(&seq)
	return seq, err
}

const createOrder = `
INSERT INTO orders (customer_id, location_id, restaurant_id, order_date, payment_method, notes,
	fingerprint, order_seq, order_number, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	CustomerID    uuid.UUID
	LocationID    uuid.UUID
	RestaurantID  pgtype.UUID
	OrderDate     time.Time
	PaymentMethod string
	Notes         pgtype.Text
	Fingerprint   string
	OrderSeq      int32
	OrderNumber   string
	TotalAmount   pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.CustomerID,
		arg.LocationID,
		arg.RestaurantID,
		arg.OrderDate,
		arg.PaymentMethod,
		arg.Notes,
		arg.Fingerprint,
		arg.OrderSeq,
		arg.OrderNumber,
		arg.TotalAmount,
	)
	return scanOrder(row)
}

// UpdateOrderContents rewrites the mutable submission fields when a
// customer resubmits before cut-off. Sequence and order number survive
// the replacement.
const updateOrderContents = `
UPDATE orders
SET payment_method = $2, notes = $3, fingerprint = $4, total_amount = $5
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderContentsParams struct {
	ID            uuid.UUID
	PaymentMethod string
	Notes         pgtype.Text
	Fingerprint   string
	TotalAmount   pgtype.Numeric
}

func (q *Queries) UpdateOrderContents(ctx context.Context, arg UpdateOrderContentsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderContents,
		arg.ID,
		arg.PaymentMethod,
		arg.Notes,
		arg.Fingerprint,
		arg.TotalAmount,
	)
	return scanOrder(row)
}

const listOrdersByCustomerAndDate = `
SELECT ` + orderColumns + `
FROM orders
WHERE customer_id = $1 AND order_date = $2
ORDER BY created_at ASC`

type ListOrdersByCustomerAndDateParams struct {
	CustomerID uuid.UUID
	OrderDate  time.Time
}

func (q *Queries) ListOrdersByCustomerAndDate(ctx context.Context, arg ListOrdersByCustomerAndDateParams) ([]Order, error) {
	return q.scanOrders(ctx, listOrdersByCustomerAndDate, arg.CustomerID, arg.OrderDate)
}

const listOrdersByDate = `
SELECT ` + orderColumns + `
FROM orders
WHERE order_date = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::uuid IS NULL OR restaurant_id = $3)
ORDER BY order_seq ASC`

type ListOrdersByDateParams struct {
	OrderDate    time.Time
	Status       pgtype.Text
	RestaurantID pgtype.UUID
}

func (q *Queries) ListOrdersByDate(ctx context.Context, arg ListOrdersByDateParams) ([]Order, error) {
	return q.scanOrders(ctx, listOrdersByDate, arg.OrderDate, arg.Status, arg.RestaurantID)
}

// UpdateOrderStatus sets the new status and stamps whichever per-state
// timestamp the caller passes as valid; the others keep their value.
const updateOrderStatus = `
UPDATE orders
SET status = $2,
    status_updated_at = $3,
    confirmed_at = COALESCE($4, confirmed_at),
    prepared_at = COALESCE($5, prepared_at),
    delivered_at = COALESCE($6, delivered_at),
    cancelled_at = COALESCE($7, cancelled_at)
WHERE id = $1 AND status = $8
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID              uuid.UUID
	Status          string
	StatusUpdatedAt time.Time
	ConfirmedAt     pgtype.Timestamptz
	PreparedAt      pgtype.Timestamptz
	DeliveredAt     pgtype.Timestamptz
	CancelledAt     pgtype.Timestamptz
	ExpectedStatus  string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID,
		arg.Status,
		arg.StatusUpdatedAt,
		arg.ConfirmedAt,
		arg.PreparedAt,
		arg.DeliveredAt,
		arg.CancelledAt,
		arg.ExpectedStatus,
	)
	return scanOrder(row)
}

// --- Order items ---

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, menu_item_id, quantity, unit_price`

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var item OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Quantity,
		arg.UnitPrice,
	).Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.UnitPrice)
	return item, err
}

const deleteOrderItems = `
DELETE FROM order_items
WHERE order_id = $1`

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItems, orderID)
	return err
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_item_id, quantity, unit_price
FROM order_items
WHERE order_id = $1
ORDER BY id ASC`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// --- Reporting ---

const getDailyOrderStats = `
SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
FROM orders
WHERE order_date = $1
  AND ($2::uuid IS NULL OR restaurant_id = $2)
GROUP BY status
ORDER BY status ASC`

type GetDailyOrderStatsParams struct {
	OrderDate    time.Time
	RestaurantID pgtype.UUID
}

type GetDailyOrderStatsRow struct {
	Status      string
	OrderCount  int64
	TotalAmount pgtype.Numeric
}

func (q *Queries) GetDailyOrderStats(ctx context.Context, arg GetDailyOrderStatsParams) ([]GetDailyOrderStatsRow, error) {
	rows, err := q.db.Query(ctx, getDailyOrderStats, arg.OrderDate, arg.RestaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []GetDailyOrderStatsRow
	for rows.Next() {
		var s GetDailyOrderStatsRow
		if err := rows.Scan(&s.Status, &s.OrderCount, &s.TotalAmount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
