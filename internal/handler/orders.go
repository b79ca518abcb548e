package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mealdesk/api/internal/cutoff"
	"github.com/mealdesk/api/internal/database"
	"github.com/mealdesk/api/internal/enum"
	"github.com/mealdesk/api/internal/middleware"
	"github.com/mealdesk/api/internal/service"
	"github.com/mealdesk/api/internal/ws"
)

// OrderSubmitter is the order service surface the handler depends on.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error)
}

// OrderReadStore defines the direct DB reads and status writes the
// order handler performs outside the submission service.
type OrderReadStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersByCustomerAndDate(ctx context.Context, arg database.ListOrdersByCustomerAndDateParams) ([]database.Order, error)
	ListOrdersByDate(ctx context.Context, arg database.ListOrdersByDateParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// CutoffResolver resolves the effective cut-off for an order's
// restaurant and location pair.
type CutoffResolver interface {
	Resolve(ctx context.Context, restaurantID *uuid.UUID, locationID uuid.UUID) cutoff.TimeOfDay
}

// OrderBroadcaster pushes order events to staff dashboards.
type OrderBroadcaster interface {
	BroadcastToRestaurant(restaurantID uuid.UUID, event ws.Event)
}

type OrderHandler struct {
	svc          OrderSubmitter
	store        OrderReadStore
	settings     SettingsStore
	resolver     CutoffResolver
	clock        cutoff.Clock
	hub          OrderBroadcaster
	defaultOpen  cutoff.TimeOfDay
	defaultClose cutoff.TimeOfDay
}

func NewOrderHandler(
	svc OrderSubmitter,
	store OrderReadStore,
	settings SettingsStore,
	resolver CutoffResolver,
	clock cutoff.Clock,
	hub OrderBroadcaster,
	defaultOpen, defaultClose cutoff.TimeOfDay,
) *OrderHandler {
	return &OrderHandler{
		svc:          svc,
		store:        store,
		settings:     settings,
		resolver:     resolver,
		clock:        clock,
		hub:          hub,
		defaultOpen:  defaultOpen,
		defaultClose: defaultClose,
	}
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	OrderDate       string              `json:"order_date"`
	Status          string              `json:"status"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	LocationID      uuid.UUID           `json:"location_id"`
	RestaurantID    *string             `json:"restaurant_id,omitempty"`
	PaymentMethod   string              `json:"payment_method"`
	Notes           *string             `json:"notes,omitempty"`
	TotalAmount     string              `json:"total_amount"`
	Items           []orderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	StatusUpdatedAt time.Time           `json:"status_updated_at"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
	PreparedAt      *time.Time          `json:"prepared_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		OrderDate:       o.OrderDate.Format(dateLayout),
		Status:          o.Status,
		CustomerID:      o.CustomerID,
		LocationID:      o.LocationID,
		PaymentMethod:   o.PaymentMethod,
		Notes:           textOrNil(o.Notes),
		TotalAmount:     numericToString(o.TotalAmount),
		CreatedAt:       o.CreatedAt,
		StatusUpdatedAt: o.StatusUpdatedAt,
		ConfirmedAt:     timestamptzOrNil(o.ConfirmedAt),
		PreparedAt:      timestamptzOrNil(o.PreparedAt),
		DeliveredAt:     timestamptzOrNil(o.DeliveredAt),
		CancelledAt:     timestamptzOrNil(o.CancelledAt),
	}
	if o.RestaurantID.Valid {
		s := uuid.UUID(o.RestaurantID.Bytes).String()
		resp.RestaurantID = &s
	}
	for _, item := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  numericToString(item.UnitPrice),
		})
	}
	return resp
}

func timestamptzOrNil(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

type submitOrderRequest struct {
	LocationID      string             `json:"location_id"`
	RestaurantID    string             `json:"restaurant_id,omitempty"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes,omitempty"`
	OrderDate       string             `json:"order_date,omitempty"`
	OrderForNextDay bool               `json:"order_for_next_day,omitempty"`
	Items           []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type submitOrderResponse struct {
	orderResponse
	IsNew bool `json:"is_new"`
}

// Submit handles POST /orders: resolves the target date against the
// cut-off, then delegates dedupe and persistence to the order service.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location_id"})
		return
	}

	var restaurantID *uuid.UUID
	if req.RestaurantID != "" {
		rid, err := uuid.Parse(req.RestaurantID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant_id"})
			return
		}
		restaurantID = &rid
	}

	now := h.clock.Now()

	open, close := orderWindow(r.Context(), h.settings, h.defaultOpen, h.defaultClose)
	if !cutoff.WithinWindow(now, open, close) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "ordering is closed"})
		return
	}

	cut := h.resolver.Resolve(r.Context(), restaurantID, locationID)

	var orderDate time.Time
	if req.OrderDate != "" {
		orderDate, err = time.ParseInLocation(dateLayout, req.OrderDate, now.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_date, expected YYYY-MM-DD"})
			return
		}
		if err := cutoff.EnsureAllowedOrderDate(orderDate, now, cut); err != nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
	} else {
		orderDate, err = cutoff.ResolveTargetDate(now, cut, req.OrderForNextDay)
		if err != nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
	}

	items := make([]service.SubmitOrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.SubmitOrderItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	result, err := h.svc.SubmitOrder(r.Context(), service.SubmitOrderRequest{
		CustomerID:    claims.UserID,
		LocationID:    req.LocationID,
		RestaurantID:  req.RestaurantID,
		OrderDate:     orderDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Items:         items,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	h.broadcastOrderEvent(result.Order, result.Items, eventTypeFor(result.IsNew))

	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, submitOrderResponse{
		orderResponse: toOrderResponse(result.Order, result.Items),
		IsNew:         result.IsNew,
	})
}

func eventTypeFor(isNew bool) string {
	if isNew {
		return "order.created"
	}
	return "order.updated"
}

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidLocationID),
		errors.Is(err, service.ErrInvalidRestaurantID),
		errors.Is(err, service.ErrRestaurantNotAvailable):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to submit order"})
	}
}

// ListMine handles GET /orders/me?date=YYYY-MM-DD, defaulting to today.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	now := h.clock.Now()

	orderDate := cutoff.DateOf(now)
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation(dateLayout, d, now.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		orderDate = parsed
	}

	orders, err := h.store.ListOrdersByCustomerAndDate(r.Context(), database.ListOrdersByCustomerAndDateParams{
		CustomerID: claims.UserID,
		OrderDate:  orderDate,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list orders"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list order items"})
			return
		}
		resp = append(resp, toOrderResponse(o, items))
	}
	writeJSON(w, http.StatusOK, resp)
}

type replaceOrderRequest struct {
	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes,omitempty"`
	Items         []orderItemRequest `json:"items"`
}

// Replace handles PUT /orders/{id}: a customer swaps the contents of an
// existing order before the cut-off. Sequence and number are kept.
func (h *OrderHandler) Replace(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	order, ok := h.loadOwnedOrder(w, r, claims.UserID)
	if !ok {
		return
	}

	now := h.clock.Now()
	cut := h.resolveOrderCutoff(r.Context(), order)
	if err := cutoff.EnsureBeforeCutoff(order.OrderDate, now, cut); err != nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	}

	var req replaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.SubmitOrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.SubmitOrderItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	restaurantID := ""
	if order.RestaurantID.Valid {
		restaurantID = uuid.UUID(order.RestaurantID.Bytes).String()
	}

	// Resubmitting for the same (customer, date) takes the replace path
	// in the service, so the order keeps its sequence and number.
	result, err := h.svc.SubmitOrder(r.Context(), service.SubmitOrderRequest{
		CustomerID:    claims.UserID,
		LocationID:    order.LocationID.String(),
		RestaurantID:  restaurantID,
		OrderDate:     order.OrderDate,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Items:         items,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	h.broadcastOrderEvent(result.Order, result.Items, "order.updated")

	writeJSON(w, http.StatusOK, submitOrderResponse{
		orderResponse: toOrderResponse(result.Order, result.Items),
		IsNew:         result.IsNew,
	})
}

// Cancel handles DELETE /orders/{id}: a customer cancels their own
// order before the cut-off. Cancellation goes through the state machine
// like any other transition.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	order, ok := h.loadOwnedOrder(w, r, claims.UserID)
	if !ok {
		return
	}

	now := h.clock.Now()
	cut := h.resolveOrderCutoff(r.Context(), order)
	if err := cutoff.EnsureBeforeCutoff(order.OrderDate, now, cut); err != nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	}

	h.applyStatus(w, r, order, enum.OrderStatusCancelled, now)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /orders/{id}/status for staff. Restaurant
// staff can only touch orders routed to their own restaurant; the
// failure mode is the same 404 as a missing order.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		orderNotFound(w)
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			orderNotFound(w)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load order"})
		return
	}

	if claims.Role == enum.RoleRestaurant {
		if claims.RestaurantID == nil || !order.RestaurantID.Valid ||
			uuid.UUID(order.RestaurantID.Bytes) != *claims.RestaurantID {
			orderNotFound(w)
			return
		}
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !service.IsValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	h.applyStatus(w, r, order, req.Status, h.clock.Now())
}

// applyStatus validates the transition and performs the guarded update.
// A zero-row update means a concurrent transition won; reported as 409.
func (h *OrderHandler) applyStatus(w http.ResponseWriter, r *http.Request, order database.Order, next string, now time.Time) {
	stamps, err := service.ApplyTransition(order.Status, next, now)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:              order.ID,
		Status:          next,
		StatusUpdatedAt: now,
		ConfirmedAt:     stamps.ConfirmedAt,
		PreparedAt:      stamps.PreparedAt,
		DeliveredAt:     stamps.DeliveredAt,
		CancelledAt:     stamps.CancelledAt,
		ExpectedStatus:  order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed concurrently"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update order status"})
		return
	}

	h.broadcastOrderEvent(updated, nil, "order.status_changed")

	writeJSON(w, http.StatusOK, toOrderResponse(updated, nil))
}

// ListForDate handles GET /orders?date=&status= for staff. Restaurant
// staff see only their own restaurant's orders; admins may filter by
// restaurant_id.
func (h *OrderHandler) ListForDate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	now := h.clock.Now()

	orderDate := cutoff.DateOf(now)
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation(dateLayout, d, now.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		orderDate = parsed
	}

	status := r.URL.Query().Get("status")
	if status != "" && !service.IsValidOrderStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	restaurantID := pgtype.UUID{}
	switch claims.Role {
	case enum.RoleRestaurant:
		if claims.RestaurantID == nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "no restaurant assigned"})
			return
		}
		restaurantID = pgtype.UUID{Bytes: *claims.RestaurantID, Valid: true}
	case enum.RoleAdmin:
		if rid := r.URL.Query().Get("restaurant_id"); rid != "" {
			parsed, err := uuid.Parse(rid)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant_id"})
				return
			}
			restaurantID = pgtype.UUID{Bytes: parsed, Valid: true}
		}
	}

	orders, err := h.store.ListOrdersByDate(r.Context(), database.ListOrdersByDateParams{
		OrderDate:    orderDate,
		Status:       textParam(status),
		RestaurantID: restaurantID,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list orders"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list order items"})
			return
		}
		resp = append(resp, toOrderResponse(o, items))
	}
	writeJSON(w, http.StatusOK, resp)
}

// loadOwnedOrder fetches the order and enforces ownership. A missing
// order and someone else's order both return 404.
func (h *OrderHandler) loadOwnedOrder(w http.ResponseWriter, r *http.Request, customerID uuid.UUID) (database.Order, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		orderNotFound(w)
		return database.Order{}, false
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			orderNotFound(w)
			return database.Order{}, false
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load order"})
		return database.Order{}, false
	}

	if order.CustomerID != customerID {
		orderNotFound(w)
		return database.Order{}, false
	}
	return order, true
}

func (h *OrderHandler) resolveOrderCutoff(ctx context.Context, order database.Order) cutoff.TimeOfDay {
	var restaurantID *uuid.UUID
	if order.RestaurantID.Valid {
		rid := uuid.UUID(order.RestaurantID.Bytes)
		restaurantID = &rid
	}
	return h.resolver.Resolve(ctx, restaurantID, order.LocationID)
}

func (h *OrderHandler) broadcastOrderEvent(order database.Order, items []database.OrderItem, eventType string) {
	if h.hub == nil || !order.RestaurantID.Valid {
		return
	}
	payload, err := json.Marshal(toOrderResponse(order, items))
	if err != nil {
		return
	}
	h.hub.BroadcastToRestaurant(uuid.UUID(order.RestaurantID.Bytes), ws.Event{
		Type:    eventType,
		Payload: payload,
	})
}
