package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mealdesk/api/internal/cutoff"
	"github.com/mealdesk/api/internal/database"
	"github.com/mealdesk/api/internal/enum"
)

// SettingsStore defines the DB methods for runtime app settings.
type SettingsStore interface {
	ListAppSettings(ctx context.Context, keys []string) ([]database.AppSetting, error)
	UpsertAppSetting(ctx context.Context, arg database.UpsertAppSettingParams) (database.AppSetting, error)
}

type SettingsHandler struct {
	store         SettingsStore
	clock         cutoff.Clock
	defaultOpen   cutoff.TimeOfDay
	defaultClose  cutoff.TimeOfDay
	defaultCutoff cutoff.TimeOfDay
}

func NewSettingsHandler(store SettingsStore, clock cutoff.Clock, defaultOpen, defaultClose, defaultCutoff cutoff.TimeOfDay) *SettingsHandler {
	return &SettingsHandler{
		store:         store,
		clock:         clock,
		defaultOpen:   defaultOpen,
		defaultClose:  defaultClose,
		defaultCutoff: defaultCutoff,
	}
}

// orderWindow reads the global submission window from app settings,
// falling back to the configured defaults for missing or malformed
// values. Reads are fresh per request so admin changes apply without a
// restart.
func orderWindow(ctx context.Context, store SettingsStore, defaultOpen, defaultClose cutoff.TimeOfDay) (open, close cutoff.TimeOfDay) {
	open, close = defaultOpen, defaultClose

	settings, err := store.ListAppSettings(ctx, []string{enum.SettingOrderingOpenTime, enum.SettingOrderingCloseTime})
	if err != nil {
		return open, close
	}
	for _, s := range settings {
		t, perr := cutoff.Parse(s.Value)
		if perr != nil {
			continue
		}
		switch s.Key {
		case enum.SettingOrderingOpenTime:
			open = t
		case enum.SettingOrderingCloseTime:
			close = t
		}
	}
	return open, close
}

type orderWindowResponse struct {
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// GetOrderWindow returns the effective global submission window.
func (h *SettingsHandler) GetOrderWindow(w http.ResponseWriter, r *http.Request) {
	open, close := orderWindow(r.Context(), h.store, h.defaultOpen, h.defaultClose)
	writeJSON(w, http.StatusOK, orderWindowResponse{
		OpenTime:  open.String(),
		CloseTime: close.String(),
	})
}

type updateOrderWindowRequest struct {
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// UpdateOrderWindow stores a new global submission window. Both bounds
// must be well-formed and open must precede close.
func (h *SettingsHandler) UpdateOrderWindow(w http.ResponseWriter, r *http.Request) {
	var req updateOrderWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	open, err := cutoff.Parse(req.OpenTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid open_time, expected HH:MM"})
		return
	}
	close, err := cutoff.Parse(req.CloseTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid close_time, expected HH:MM"})
		return
	}
	if !open.Before(close) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "open_time must be before close_time"})
		return
	}

	if _, err := h.store.UpsertAppSetting(r.Context(), database.UpsertAppSettingParams{
		Key:   enum.SettingOrderingOpenTime,
		Value: open.String(),
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save setting"})
		return
	}
	if _, err := h.store.UpsertAppSetting(r.Context(), database.UpsertAppSettingParams{
		Key:   enum.SettingOrderingCloseTime,
		Value: close.String(),
	}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save setting"})
		return
	}

	writeJSON(w, http.StatusOK, orderWindowResponse{
		OpenTime:  open.String(),
		CloseTime: close.String(),
	})
}

type orderingStatusResponse struct {
	IsOpen            bool   `json:"is_open"`
	OpenTime          string `json:"open_time"`
	CloseTime         string `json:"close_time"`
	DefaultCutoffTime string `json:"default_cutoff_time"`
	ServerTime        string `json:"server_time"`
}

// OrderingStatus is the public probe clients poll before showing the
// order form.
func (h *SettingsHandler) OrderingStatus(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	open, close := orderWindow(r.Context(), h.store, h.defaultOpen, h.defaultClose)

	writeJSON(w, http.StatusOK, orderingStatusResponse{
		IsOpen:            cutoff.WithinWindow(now, open, close),
		OpenTime:          open.String(),
		CloseTime:         close.String(),
		DefaultCutoffTime: h.defaultCutoff.String(),
		ServerTime:        now.Format("2006-01-02T15:04:05Z07:00"),
	})
}
