package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mealdesk/api/internal/database"
	"github.com/mealdesk/api/internal/enum"
	"github.com/shopspring/decimal"
)

const maxOrderSeqRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems             = errors.New("items are required")
	ErrInvalidQuantity        = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID      = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound       = errors.New("menu item not found or inactive")
	ErrInvalidPaymentMethod   = errors.New("invalid payment_method")
	ErrInvalidLocationID      = errors.New("invalid location_id")
	ErrInvalidRestaurantID    = errors.New("invalid restaurant_id")
	ErrRestaurantNotAvailable = errors.New("restaurant does not deliver to this location")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to submit orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetRestaurantLocation(ctx context.Context, arg database.GetRestaurantLocationParams) (database.RestaurantLocation, error)
	GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.GetMenuItemForOrderRow, error)
	GetOrderByCustomerAndDate(ctx context.Context, arg database.GetOrderByCustomerAndDateParams) (database.Order, error)
	GetNextOrderSeq(ctx context.Context, orderDate time.Time) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	UpdateOrderContents(ctx context.Context, arg database.UpdateOrderContentsParams) (database.Order, error)
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// SubmitOrderRequest is the validated input for submitting an order.
// OrderDate has already been resolved against the cut-off policy by the
// caller; the service only handles dedupe, numbering and persistence.
type SubmitOrderRequest struct {
	CustomerID    uuid.UUID
	LocationID    string
	RestaurantID  string // optional
	OrderDate     time.Time
	PaymentMethod string
	Notes         string
	Items         []SubmitOrderItemRequest
}

// SubmitOrderItemRequest is a single menu line in the submission.
type SubmitOrderItemRequest struct {
	MenuItemID string
	Quantity   int32
}

// SubmitOrderResult is the persisted order with its items. IsNew is
// false both for an idempotent resubmission (same fingerprint) and for
// a content replacement of the existing same-day order.
type SubmitOrderResult struct {
	Order database.Order
	Items []database.OrderItem
	IsNew bool
}

// OrderService handles order submission business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// preparedLine holds a validated item with its price snapshot.
type preparedLine struct {
	menuItemID uuid.UUID
	quantity   int32
	unitPrice  decimal.Decimal
}

// SubmitOrder validates, fingerprints and persists a submission
// atomically. At most one order exists per (customer, date): a repeat of
// the same content returns the existing order untouched, different
// content replaces the existing order's items wholesale, and a first
// submission claims the next per-date sequence number. Unique-constraint
// races on the sequence, the order number or the customer-date pair are
// retried up to maxOrderSeqRetries times, never surfaced to the caller.
func (s *OrderService) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, ErrInvalidLocationID
	}

	restaurantID := pgtype.UUID{}
	if req.RestaurantID != "" {
		rid, err := uuid.Parse(req.RestaurantID)
		if err != nil {
			return nil, ErrInvalidRestaurantID
		}
		restaurantID = pgtype.UUID{Bytes: rid, Valid: true}
	}

	fingerprint := Fingerprint(req.PaymentMethod, req.Notes, req.Items)

	var lastErr error
	for attempt := 0; attempt < maxOrderSeqRetries; attempt++ {
		result, err := s.submitTx(ctx, req, locationID, restaurantID, fingerprint)
		if err == nil {
			return result, nil
		}
		if isSubmitConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isSubmitConflict checks for unique constraint violations (pgconn error
// code 23505) on the order uniqueness backstops. A customer-date
// conflict means a concurrent submission won the insert race; the retry
// then takes the existing-order path.
func isSubmitConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	switch pgErr.ConstraintName {
	case "uq_orders_order_date_seq", "uq_orders_order_number", "uq_orders_customer_date":
		return true
	}
	return false
}

func (s *OrderService) submitTx(ctx context.Context, req SubmitOrderRequest, locationID uuid.UUID, restaurantID pgtype.UUID, fingerprint string) (*SubmitOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if restaurantID.Valid {
		mapping, err := store.GetRestaurantLocation(ctx, database.GetRestaurantLocationParams{
			RestaurantID: uuid.UUID(restaurantID.Bytes),
			LocationID:   locationID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrRestaurantNotAvailable
			}
			return nil, fmt.Errorf("get restaurant location: %w", err)
		}
		if !mapping.IsActive {
			return nil, ErrRestaurantNotAvailable
		}
	}

	// Snapshot menu prices and compute the total.
	total := decimal.Zero
	lines := make([]preparedLine, 0, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetMenuItemForOrder(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if !menuItem.IsActive {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
		}
		price := numericToDecimal(menuItem.Price)
		total = total.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
		lines = append(lines, preparedLine{
			menuItemID: menuItemID,
			quantity:   item.Quantity,
			unitPrice:  price,
		})
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	existing, err := store.GetOrderByCustomerAndDate(ctx, database.GetOrderByCustomerAndDateParams{
		CustomerID: req.CustomerID,
		OrderDate:  req.OrderDate,
	})
	switch {
	case err == nil && existing.Fingerprint == fingerprint:
		// Idempotent resubmission: same content, return as-is.
		items, err := store.ListOrderItemsByOrder(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit tx: %w", err)
		}
		return &SubmitOrderResult{Order: existing, Items: items, IsNew: false}, nil

	case err == nil:
		// Same-day resubmission with new content: replace items wholesale,
		// the order keeps its sequence and number.
		if err := store.DeleteOrderItems(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("delete order items: %w", err)
		}
		items, err := insertLines(ctx, store, existing.ID, lines)
		if err != nil {
			return nil, err
		}
		updated, err := store.UpdateOrderContents(ctx, database.UpdateOrderContentsParams{
			ID:            existing.ID,
			PaymentMethod: req.PaymentMethod,
			Notes:         notes,
			Fingerprint:   fingerprint,
			TotalAmount:   decimalToNumeric(total),
		})
		if err != nil {
			return nil, fmt.Errorf("update order contents: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit tx: %w", err)
		}
		return &SubmitOrderResult{Order: updated, Items: items, IsNew: false}, nil

	case errors.Is(err, pgx.ErrNoRows):
		// First submission for this (customer, date).
		seq, err := store.GetNextOrderSeq(ctx, req.OrderDate)
		if err != nil {
			return nil, fmt.Errorf("get next order seq: %w", err)
		}
		orderNumber := FormatOrderNumber(req.OrderDate, seq)

		order, err := store.CreateOrder(ctx, database.CreateOrderParams{
			CustomerID:    req.CustomerID,
			LocationID:    locationID,
			RestaurantID:  restaurantID,
			OrderDate:     req.OrderDate,
			PaymentMethod: req.PaymentMethod,
			Notes:         notes,
			Fingerprint:   fingerprint,
			OrderSeq:      seq,
			OrderNumber:   orderNumber,
			TotalAmount:   decimalToNumeric(total),
		})
		if err != nil {
			return nil, fmt.Errorf("create order: %w", err)
		}
		items, err := insertLines(ctx, store, order.ID, lines)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit tx: %w", err)
		}
		return &SubmitOrderResult{Order: order, Items: items, IsNew: true}, nil

	default:
		return nil, fmt.Errorf("get order by customer and date: %w", err)
	}
}

func insertLines(ctx context.Context, store OrderStore, orderID uuid.UUID, lines []preparedLine) ([]database.OrderItem, error) {
	items := make([]database.OrderItem, 0, len(lines))
	for _, line := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    orderID,
			MenuItemID: line.menuItemID,
			Quantity:   line.quantity,
			UnitPrice:  decimalToNumeric(line.unitPrice),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// FormatOrderNumber builds the human-facing number: compact date prefix
// plus the zero-padded per-day sequence, e.g. "20260315-007".
func FormatOrderNumber(orderDate time.Time, seq int32) string {
	return fmt.Sprintf("%s-%03d", orderDate.Format("20060102"), seq)
}

// --- Helpers ---

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodTransfer, enum.PaymentMethodDeferred:
		return true
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
