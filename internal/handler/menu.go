package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mealdesk/api/internal/database"
	"github.com/shopspring/decimal"
)

// MenuStore defines the DB methods for menu management and browsing.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListActiveMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListMenuItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
}

type MenuHandler struct {
	store MenuStore
}

func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

type menuItemResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID *string   `json:"restaurant_id,omitempty"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Price        string    `json:"price"`
	Category     *string   `json:"category,omitempty"`
	IsActive     bool      `json:"is_active"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: textOrNil(m.Description),
		Price:       numericToString(m.Price),
		Category:    textOrNil(m.Category),
		IsActive:    m.IsActive,
	}
	if m.RestaurantID.Valid {
		s := uuid.UUID(m.RestaurantID.Bytes).String()
		resp.RestaurantID = &s
	}
	return resp
}

// Today handles GET /menu/today: the active menu customers order from.
// An optional restaurant_id narrows to one restaurant's items.
func (h *MenuHandler) Today(w http.ResponseWriter, r *http.Request) {
	var items []database.MenuItem
	var err error

	if rid := r.URL.Query().Get("restaurant_id"); rid != "" {
		restaurantID, perr := uuid.Parse(rid)
		if perr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant_id"})
			return
		}
		items, err = h.store.ListMenuItemsByRestaurant(r.Context(), restaurantID)
	} else {
		items, err = h.store.ListActiveMenuItems(r.Context())
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list menu"})
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, m := range items {
		if !m.IsActive {
			continue
		}
		resp = append(resp, toMenuItemResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

type menuItemRequest struct {
	RestaurantID string `json:"restaurant_id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        string `json:"price"`
	Category     string `json:"category,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errors.New("price must not be negative")
	}
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and price are required"})
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	restaurantID := pgtype.UUID{}
	if req.RestaurantID != "" {
		rid, err := uuid.Parse(req.RestaurantID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant_id"})
			return
		}
		restaurantID = pgtype.UUID{Bytes: rid, Valid: true}
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  textParam(req.Description),
		Price:        price,
		Category:     textParam(req.Category),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create menu item"})
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}
	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load menu item"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and price are required"})
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Name:        req.Name,
		Description: textParam(req.Description),
		Price:       price,
		Category:    textParam(req.Category),
		IsActive:    isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update menu item"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}
