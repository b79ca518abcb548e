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

// LocationStore defines the DB methods for delivery location admin.
type LocationStore interface {
	CreateLocation(ctx context.Context, arg database.CreateLocationParams) (database.Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (database.Location, error)
	ListActiveLocations(ctx context.Context) ([]database.Location, error)
	UpdateLocation(ctx context.Context, arg database.UpdateLocationParams) (database.Location, error)
	DeactivateLocation(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type LocationHandler struct {
	store LocationStore
}

func NewLocationHandler(store LocationStore) *LocationHandler {
	return &LocationHandler{store: store}
}

type locationRequest struct {
	CompanyName         string `json:"company_name"`
	Address             string `json:"address"`
	PostalCode          string `json:"postal_code,omitempty"`
	DeliveryWindowStart string `json:"delivery_window_start,omitempty"`
	DeliveryWindowEnd   string `json:"delivery_window_end,omitempty"`
	CutoffTime          string `json:"cutoff_time,omitempty"`
}

type locationResponse struct {
	ID                  uuid.UUID `json:"id"`
	CompanyName         string    `json:"company_name"`
	Address             string    `json:"address"`
	PostalCode          *string   `json:"postal_code,omitempty"`
	DeliveryWindowStart *string   `json:"delivery_window_start,omitempty"`
	DeliveryWindowEnd   *string   `json:"delivery_window_end,omitempty"`
	CutoffTime          *string   `json:"cutoff_time,omitempty"`
	IsActive            bool      `json:"is_active"`
}

func toLocationResponse(l database.Location) locationResponse {
	return locationResponse{
		ID:                  l.ID,
		CompanyName:         l.CompanyName,
		Address:             l.Address,
		PostalCode:          textOrNil(l.PostalCode),
		DeliveryWindowStart: textOrNil(l.DeliveryWindowStart),
		DeliveryWindowEnd:   textOrNil(l.DeliveryWindowEnd),
		CutoffTime:          textOrNil(l.CutoffTime),
		IsActive:            l.IsActive,
	}
}

// validateLocationTimes rejects malformed HH:MM fields before they
// reach the cut-off resolver as silent fall-throughs.
func validateLocationTimes(req locationRequest) error {
	for _, v := range []string{req.DeliveryWindowStart, req.DeliveryWindowEnd, req.CutoffTime} {
		if v == "" {
			continue
		}
		if _, err := cutoff.Parse(v); err != nil {
			return err
		}
	}
	return nil
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CompanyName == "" || req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company_name and address are required"})
		return
	}
	if err := validateLocationTimes(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "time fields must be HH:MM"})
		return
	}

	location, err := h.store.CreateLocation(r.Context(), database.CreateLocationParams{
		CompanyName:         req.CompanyName,
		Address:             req.Address,
		PostalCode:          textParam(req.PostalCode),
		DeliveryWindowStart: textParam(req.DeliveryWindowStart),
		DeliveryWindowEnd:   textParam(req.DeliveryWindowEnd),
		CutoffTime:          textParam(req.CutoffTime),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create location"})
		return
	}
	writeJSON(w, http.StatusCreated, toLocationResponse(location))
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.store.ListActiveLocations(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list locations"})
		return
	}
	resp := make([]locationResponse, 0, len(locations))
	for _, l := range locations {
		resp = append(resp, toLocationResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
		return
	}
	location, err := h.store.GetLocation(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load location"})
		return
	}
	writeJSON(w, http.StatusOK, toLocationResponse(location))
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CompanyName == "" || req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company_name and address are required"})
		return
	}
	if err := validateLocationTimes(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "time fields must be HH:MM"})
		return
	}

	location, err := h.store.UpdateLocation(r.Context(), database.UpdateLocationParams{
		ID:                  id,
		CompanyName:         req.CompanyName,
		Address:             req.Address,
		PostalCode:          textParam(req.PostalCode),
		DeliveryWindowStart: textParam(req.DeliveryWindowStart),
		DeliveryWindowEnd:   textParam(req.DeliveryWindowEnd),
		CutoffTime:          textParam(req.CutoffTime),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update location"})
		return
	}
	writeJSON(w, http.StatusOK, toLocationResponse(location))
}

// Deactivate soft-deletes; orders keep their location reference.
func (h *LocationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
		return
	}
	if _, err := h.store.DeactivateLocation(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to deactivate location"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
