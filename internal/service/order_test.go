package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mealdesk/api/internal/database"
	"github.com/mealdesk/api/internal/service"
)

// --- Mock OrderStore ---

type mockOrderStore struct {
	getRestaurantLocationFn func(ctx context.Context, arg database.GetRestaurantLocationParams) (database.RestaurantLocation, error)
	getMenuItemForOrderFn   func(ctx context.Context, id uuid.UUID) (database.GetMenuItemForOrderRow, error)
	getOrderByCustomerFn    func(ctx context.Context, arg database.GetOrderByCustomerAndDateParams) (database.Order, error)
	getNextOrderSeqFn       func(ctx context.Context, orderDate time.Time) (int32, error)
	createOrderFn           func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	updateOrderContentsFn   func(ctx context.Context, arg database.UpdateOrderContentsParams) (database.Order, error)
	deleteOrderItemsFn      func(ctx context.Context, orderID uuid.UUID) error
	createOrderItemFn       func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	listOrderItemsFn        func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

func (m *mockOrderStore) GetRestaurantLocation(ctx context.Context, arg database.GetRestaurantLocationParams) (database.RestaurantLocation, error) {
	if m.getRestaurantLocationFn != nil {
		return m.getRestaurantLocationFn(ctx, arg)
	}
	return database.RestaurantLocation{}, pgx.ErrNoRows
}

func (m *mockOrderStore) GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.GetMenuItemForOrderRow, error) {
	if m.getMenuItemForOrderFn != nil {
		return m.getMenuItemForOrderFn(ctx, id)
	}
	return database.GetMenuItemForOrderRow{ID: id, Price: testNumeric("10.00"), IsActive: true}, nil
}

func (m *mockOrderStore) GetOrderByCustomerAndDate(ctx context.Context, arg database.GetOrderByCustomerAndDateParams) (database.Order, error) {
	if m.getOrderByCustomerFn != nil {
		return m.getOrderByCustomerFn(ctx, arg)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) GetNextOrderSeq(ctx context.Context, orderDate time.Time) (int32, error) {
	if m.getNextOrderSeqFn != nil {
		return m.getNextOrderSeqFn(ctx, orderDate)
	}
	return 1, nil
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, arg)
	}
	return database.Order{
		ID:            uuid.New(),
		CustomerID:    arg.CustomerID,
		LocationID:    arg.LocationID,
		RestaurantID:  arg.RestaurantID,
		OrderDate:     arg.OrderDate,
		Status:        "pending",
		PaymentMethod: arg.PaymentMethod,
		Notes:         arg.Notes,
		Fingerprint:   arg.Fingerprint,
		OrderSeq:      arg.OrderSeq,
		OrderNumber:   arg.OrderNumber,
		TotalAmount:   arg.TotalAmount,
	}, nil
}

func (m *mockOrderStore) UpdateOrderContents(ctx context.Context, arg database.UpdateOrderContentsParams) (database.Order, error) {
	if m.updateOrderContentsFn != nil {
		return m.updateOrderContentsFn(ctx, arg)
	}
	return database.Order{ID: arg.ID, Fingerprint: arg.Fingerprint, PaymentMethod: arg.PaymentMethod}, nil
}

func (m *mockOrderStore) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	if m.deleteOrderItemsFn != nil {
		return m.deleteOrderItemsFn(ctx, orderID)
	}
	return nil
}

func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if m.createOrderItemFn != nil {
		return m.createOrderItemFn(ctx, arg)
	}
	return database.OrderItem{
		ID:         uuid.New(),
		OrderID:    arg.OrderID,
		MenuItemID: arg.MenuItemID,
		Quantity:   arg.Quantity,
		UnitPrice:  arg.UnitPrice,
	}, nil
}

func (m *mockOrderStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	if m.listOrderItemsFn != nil {
		return m.listOrderItemsFn(ctx, orderID)
	}
	return []database.OrderItem{}, nil
}

// --- Mock TxBeginner ---

type mockTx struct {
	commitFn func(ctx context.Context) error
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error { return nil }

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (m *mockTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Conn() *pgx.Conn { return nil }

type mockPool struct{}

func (m *mockPool) Begin(ctx context.Context) (pgx.Tx, error) { return &mockTx{}, nil }

// --- Test helpers ---

func testNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func newTestService(store *mockOrderStore) *service.OrderService {
	return service.NewOrderService(&mockPool{}, func(db database.DBTX) service.OrderStore {
		return store
	})
}

func validRequest(customerID uuid.UUID) service.SubmitOrderRequest {
	return service.SubmitOrderRequest{
		CustomerID:    customerID,
		LocationID:    uuid.New().String(),
		OrderDate:     time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		PaymentMethod: "CASH",
		Items: []service.SubmitOrderItemRequest{
			{MenuItemID: uuid.New().String(), Quantity: 2},
		},
	}
}

func seqConflictErr() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "uq_orders_order_date_seq"}
}

// --- Tests ---

func TestSubmitOrder_FirstSubmission(t *testing.T) {
	customerID := uuid.New()
	var created database.CreateOrderParams

	store := &mockOrderStore{
		getNextOrderSeqFn: func(ctx context.Context, orderDate time.Time) (int32, error) {
			return 7, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			created = arg
			return database.Order{ID: uuid.New(), OrderSeq: arg.OrderSeq, OrderNumber: arg.OrderNumber, Fingerprint: arg.Fingerprint}, nil
		},
	}

	result, err := newTestService(store).SubmitOrder(context.Background(), validRequest(customerID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.IsNew {
		t.Error("first submission should be new")
	}
	if created.OrderSeq != 7 {
		t.Errorf("order_seq: got %d, want 7", created.OrderSeq)
	}
	if created.OrderNumber != "20260316-007" {
		t.Errorf("order_number: got %s, want 20260316-007", created.OrderNumber)
	}
	if len(result.Items) != 1 {
		t.Errorf("items: got %d, want 1", len(result.Items))
	}
}

func TestSubmitOrder_IdempotentResubmission(t *testing.T) {
	customerID := uuid.New()
	req := validRequest(customerID)
	existingID := uuid.New()

	deleteCalled := false
	createCalled := false

	store := &mockOrderStore{
		getOrderByCustomerFn: func(ctx context.Context, arg database.GetOrderByCustomerAndDateParams) (database.Order, error) {
			return database.Order{
				ID:          existingID,
				Fingerprint: service.Fingerprint(req.PaymentMethod, req.Notes, req.Items),
				OrderNumber: "20260316-003",
			}, nil
		},
		deleteOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) error {
			deleteCalled = true
			return nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			createCalled = true
			return database.Order{}, nil
		},
	}

	result, err := newTestService(store).SubmitOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IsNew {
		t.Error("resubmission should not be new")
	}
	if result.Order.ID != existingID {
		t.Error("should return the existing order")
	}
	if result.Order.OrderNumber != "20260316-003" {
		t.Errorf("order number must survive resubmission, got %s", result.Order.OrderNumber)
	}
	if deleteCalled || createCalled {
		t.Error("identical content must not touch the existing order")
	}
}

func TestSubmitOrder_ReplacesChangedContent(t *testing.T) {
	customerID := uuid.New()
	req := validRequest(customerID)
	existingID := uuid.New()

	deleteCalled := false
	var updated database.UpdateOrderContentsParams

	store := &mockOrderStore{
		getOrderByCustomerFn: func(ctx context.Context, arg database.GetOrderByCustomerAndDateParams) (database.Order, error) {
			return database.Order{ID: existingID, Fingerprint: "different", OrderSeq: 4, OrderNumber: "20260316-004"}, nil
		},
		deleteOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) error {
			if orderID != existingID {
				t.Errorf("delete items for wrong order: %v", orderID)
			}
			deleteCalled = true
			return nil
		},
		updateOrderContentsFn: func(ctx context.Context, arg database.UpdateOrderContentsParams) (database.Order, error) {
			updated = arg
			return database.Order{ID: arg.ID, OrderSeq: 4, OrderNumber: "20260316-004", Fingerprint: arg.Fingerprint}, nil
		},
	}

	result, err := newTestService(store).SubmitOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IsNew {
		t.Error("replacement should not be new")
	}
	if !deleteCalled {
		t.Error("changed content must replace the existing items")
	}
	if updated.ID != existingID {
		t.Error("should update the existing order")
	}
	if result.Order.OrderNumber != "20260316-004" {
		t.Error("sequence and number must survive replacement")
	}
}

func TestSubmitOrder_Validation(t *testing.T) {
	customerID := uuid.New()
	svc := newTestService(&mockOrderStore{})

	tests := []struct {
		name    string
		mutate  func(*service.SubmitOrderRequest)
		wantErr error
	}{
		{"empty items", func(r *service.SubmitOrderRequest) { r.Items = nil }, service.ErrEmptyItems},
		{"bad payment method", func(r *service.SubmitOrderRequest) { r.PaymentMethod = "BARTER" }, service.ErrInvalidPaymentMethod},
		{"bad location id", func(r *service.SubmitOrderRequest) { r.LocationID = "nope" }, service.ErrInvalidLocationID},
		{"bad restaurant id", func(r *service.SubmitOrderRequest) { r.RestaurantID = "nope" }, service.ErrInvalidRestaurantID},
		{"zero quantity", func(r *service.SubmitOrderRequest) { r.Items[0].Quantity = 0 }, service.ErrInvalidQuantity},
		{"bad menu item id", func(r *service.SubmitOrderRequest) { r.Items[0].MenuItemID = "nope" }, service.ErrInvalidMenuItemID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(customerID)
			tt.mutate(&req)
			_, err := svc.SubmitOrder(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmitOrder_InactiveMenuItem(t *testing.T) {
	store := &mockOrderStore{
		getMenuItemForOrderFn: func(ctx context.Context, id uuid.UUID) (database.GetMenuItemForOrderRow, error) {
			return database.GetMenuItemForOrderRow{ID: id, Price: testNumeric("10.00"), IsActive: false}, nil
		},
	}

	_, err := newTestService(store).SubmitOrder(context.Background(), validRequest(uuid.New()))
	if !errors.Is(err, service.ErrMenuItemNotFound) {
		t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
	}
}

func TestSubmitOrder_RestaurantCoverage(t *testing.T) {
	req := validRequest(uuid.New())
	req.RestaurantID = uuid.New().String()

	// No mapping at all.
	_, err := newTestService(&mockOrderStore{}).SubmitOrder(context.Background(), req)
	if !errors.Is(err, service.ErrRestaurantNotAvailable) {
		t.Fatalf("missing mapping: expected ErrRestaurantNotAvailable, got %v", err)
	}

	// Mapping exists but is inactive.
	store := &mockOrderStore{
		getRestaurantLocationFn: func(ctx context.Context, arg database.GetRestaurantLocationParams) (database.RestaurantLocation, error) {
			return database.RestaurantLocation{IsActive: false}, nil
		},
	}
	_, err = newTestService(store).SubmitOrder(context.Background(), req)
	if !errors.Is(err, service.ErrRestaurantNotAvailable) {
		t.Fatalf("inactive mapping: expected ErrRestaurantNotAvailable, got %v", err)
	}
}

func TestSubmitOrder_RetriesSeqConflict(t *testing.T) {
	attempts := 0

	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			attempts++
			if attempts == 1 {
				return database.Order{}, seqConflictErr()
			}
			return database.Order{ID: uuid.New(), OrderSeq: arg.OrderSeq, OrderNumber: arg.OrderNumber}, nil
		},
	}

	result, err := newTestService(store).SubmitOrder(context.Background(), validRequest(uuid.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts: got %d, want 2", attempts)
	}
	if !result.IsNew {
		t.Error("retried submission should still be new")
	}
}

func TestSubmitOrder_RetryBudgetExhausted(t *testing.T) {
	attempts := 0

	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			attempts++
			return database.Order{}, seqConflictErr()
		},
	}

	_, err := newTestService(store).SubmitOrder(context.Background(), validRequest(uuid.New()))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("attempts: got %d, want 3", attempts)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Errorf("expected the underlying conflict to surface, got %v", err)
	}
}

func TestSubmitOrder_NonConflictErrorNotRetried(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")

	store := &mockOrderStore{
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			attempts++
			return database.Order{}, boom
		},
	}

	_, err := newTestService(store).SubmitOrder(context.Background(), validRequest(uuid.New()))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts: got %d, want 1", attempts)
	}
}

func TestFormatOrderNumber(t *testing.T) {
	date := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	if got := service.FormatOrderNumber(date, 1); got != "20260316-001" {
		t.Errorf("got %s, want 20260316-001", got)
	}
	if got := service.FormatOrderNumber(date, 123); got != "20260316-123" {
		t.Errorf("got %s, want 20260316-123", got)
	}
	if got := service.FormatOrderNumber(date, 1234); got != "20260316-1234" {
		t.Errorf("padding must not truncate, got %s", got)
	}
}
