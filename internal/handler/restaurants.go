package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mealdesk/api/internal/cutoff"
	"github.com/mealdesk/api/internal/database"
)

// RestaurantStore defines the DB methods for restaurant admin,
// including coverage mappings and served postal codes.
type RestaurantStore interface {
	CreateRestaurant(ctx context.Context, name string) (database.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]database.Restaurant, error)
	UpdateRestaurant(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error)
	ListActiveRestaurantsForLocation(ctx context.Context, locationID uuid.UUID) ([]database.Restaurant, error)
	UpsertRestaurantLocation(ctx context.Context, arg database.UpsertRestaurantLocationParams) (database.RestaurantLocation, error)
	ListRestaurantLocations(ctx context.Context, restaurantID uuid.UUID) ([]database.RestaurantLocation, error)
	AddRestaurantPostalCode(ctx context.Context, arg database.AddRestaurantPostalCodeParams) (database.RestaurantPostalCode, error)
	DeleteRestaurantPostalCode(ctx context.Context, arg database.DeleteRestaurantPostalCodeParams) error
	ListRestaurantPostalCodes(ctx context.Context, restaurantID uuid.UUID) ([]database.RestaurantPostalCode, error)
	RestaurantServesPostalCode(ctx context.Context, arg database.RestaurantServesPostalCodeParams) (bool, error)
	GetLocation(ctx context.Context, id uuid.UUID) (database.Location, error)
}

type RestaurantHandler struct {
	store RestaurantStore
}

func NewRestaurantHandler(store RestaurantStore) *RestaurantHandler {
	return &RestaurantHandler{store: store}
}

type restaurantResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

func toRestaurantResponse(r database.Restaurant) restaurantResponse {
	return restaurantResponse{ID: r.ID, Name: r.Name, IsActive: r.IsActive}
}

type createRestaurantRequest struct {
	Name string `json:"name"`
}

func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	restaurant, err := h.store.CreateRestaurant(r.Context(), req.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create restaurant"})
		return
	}
	writeJSON(w, http.StatusCreated, toRestaurantResponse(restaurant))
}

func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	// Customers can narrow to restaurants covering their location.
	if lid := r.URL.Query().Get("location_id"); lid != "" {
		locationID, err := uuid.Parse(lid)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location_id"})
			return
		}
		restaurants, err := h.store.ListActiveRestaurantsForLocation(r.Context(), locationID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list restaurants"})
			return
		}
		h.writeRestaurantList(w, restaurants)
		return
	}

	restaurants, err := h.store.ListRestaurants(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list restaurants"})
		return
	}
	h.writeRestaurantList(w, restaurants)
}

func (h *RestaurantHandler) writeRestaurantList(w http.ResponseWriter, restaurants []database.Restaurant) {
	resp := make([]restaurantResponse, 0, len(restaurants))
	for _, restaurant := range restaurants {
		resp = append(resp, toRestaurantResponse(restaurant))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}
	restaurant, err := h.store.GetRestaurant(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load restaurant"})
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

type updateRestaurantRequest struct {
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}

	var req updateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	restaurant, err := h.store.UpdateRestaurant(r.Context(), database.UpdateRestaurantParams{
		ID:       id,
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update restaurant"})
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// --- Coverage mappings ---

type upsertCoverageRequest struct {
	LocationID         string `json:"location_id"`
	CutOffTimeOverride string `json:"cut_off_time_override,omitempty"`
	IsActive           bool   `json:"is_active"`
}

type coverageResponse struct {
	ID                 uuid.UUID `json:"id"`
	RestaurantID       uuid.UUID `json:"restaurant_id"`
	LocationID         uuid.UUID `json:"location_id"`
	CutOffTimeOverride *string   `json:"cut_off_time_override,omitempty"`
	IsActive           bool      `json:"is_active"`
}

func toCoverageResponse(rl database.RestaurantLocation) coverageResponse {
	return coverageResponse{
		ID:                 rl.ID,
		RestaurantID:       rl.RestaurantID,
		LocationID:         rl.LocationID,
		CutOffTimeOverride: textOrNil(rl.CutOffTimeOverride),
		IsActive:           rl.IsActive,
	}
}

// UpsertCoverage creates or updates the (restaurant, location) mapping,
// optionally with a per-pair cut-off override.
func (h *RestaurantHandler) UpsertCoverage(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}

	var req upsertCoverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid location_id"})
		return
	}
	if req.CutOffTimeOverride != "" {
		if _, err := cutoff.Parse(req.CutOffTimeOverride); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cut_off_time_override must be HH:MM"})
			return
		}
	}

	location, err := h.store.GetLocation(r.Context(), locationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load location"})
		return
	}

	// A restaurant with registered postal codes may only claim locations
	// inside them. An empty set means no restriction.
	codes, err := h.store.ListRestaurantPostalCodes(r.Context(), restaurantID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load postal codes"})
		return
	}
	if len(codes) > 0 {
		served := false
		if location.PostalCode.Valid {
			served, err = h.store.RestaurantServesPostalCode(r.Context(), database.RestaurantServesPostalCodeParams{
				RestaurantID: restaurantID,
				PostalCode:   location.PostalCode.String,
			})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check postal code"})
				return
			}
		}
		if !served {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "restaurant does not serve this postal code"})
			return
		}
	}

	mapping, err := h.store.UpsertRestaurantLocation(r.Context(), database.UpsertRestaurantLocationParams{
		RestaurantID:       restaurantID,
		LocationID:         locationID,
		CutOffTimeOverride: textParam(req.CutOffTimeOverride),
		IsActive:           req.IsActive,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save coverage"})
		return
	}
	writeJSON(w, http.StatusOK, toCoverageResponse(mapping))
}

func (h *RestaurantHandler) ListCoverage(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}

	mappings, err := h.store.ListRestaurantLocations(r.Context(), restaurantID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list coverage"})
		return
	}
	resp := make([]coverageResponse, 0, len(mappings))
	for _, rl := range mappings {
		resp = append(resp, toCoverageResponse(rl))
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Served postal codes ---

type postalCodeRequest struct {
	PostalCode string `json:"postal_code"`
}

type postalCodeResponse struct {
	PostalCode string `json:"postal_code"`
}

func (h *RestaurantHandler) AddPostalCode(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}

	var req postalCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PostalCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "postal_code is required"})
		return
	}

	// Upsert semantics: re-adding an existing code is a no-op.
	_, err = h.store.AddRestaurantPostalCode(r.Context(), database.AddRestaurantPostalCodeParams{
		RestaurantID: restaurantID,
		PostalCode:   req.PostalCode,
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add postal code"})
		return
	}
	writeJSON(w, http.StatusCreated, postalCodeResponse{PostalCode: req.PostalCode})
}

func (h *RestaurantHandler) DeletePostalCode(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}
	code := chi.URLParam(r, "code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "postal_code is required"})
		return
	}

	if err := h.store.DeleteRestaurantPostalCode(r.Context(), database.DeleteRestaurantPostalCodeParams{
		RestaurantID: restaurantID,
		PostalCode:   code,
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete postal code"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RestaurantHandler) ListPostalCodes(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
		return
	}

	codes, err := h.store.ListRestaurantPostalCodes(r.Context(), restaurantID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list postal codes"})
		return
	}
	resp := make([]postalCodeResponse, 0, len(codes))
	for _, c := range codes {
		resp = append(resp, postalCodeResponse{PostalCode: c.PostalCode})
	}
	writeJSON(w, http.StatusOK, resp)
}
