package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mealdesk/api/internal/cutoff"
	"github.com/mealdesk/api/internal/database"
	"github.com/mealdesk/api/internal/enum"
	"github.com/mealdesk/api/internal/middleware"
)

// ReportStore defines the DB methods for reporting.
type ReportStore interface {
	GetDailyOrderStats(ctx context.Context, arg database.GetDailyOrderStatsParams) ([]database.GetDailyOrderStatsRow, error)
}

type ReportHandler struct {
	store ReportStore
	clock cutoff.Clock
}

func NewReportHandler(store ReportStore, clock cutoff.Clock) *ReportHandler {
	return &ReportHandler{store: store, clock: clock}
}

type dailyStatRow struct {
	Status      string `json:"status"`
	OrderCount  int64  `json:"order_count"`
	TotalAmount string `json:"total_amount"`
}

type dailyReportResponse struct {
	Date         string         `json:"date"`
	RestaurantID *string        `json:"restaurant_id,omitempty"`
	Stats        []dailyStatRow `json:"stats"`
}

// Daily handles GET /reports/daily?date=&restaurant_id=. Restaurant
// staff are pinned to their own restaurant; admins may query any or
// all.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
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

	stats, err := h.store.GetDailyOrderStats(r.Context(), database.GetDailyOrderStatsParams{
		OrderDate:    orderDate,
		RestaurantID: restaurantID,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load report"})
		return
	}

	resp := dailyReportResponse{
		Date:  orderDate.Format(dateLayout),
		Stats: make([]dailyStatRow, 0, len(stats)),
	}
	if restaurantID.Valid {
		s := uuid.UUID(restaurantID.Bytes).String()
		resp.RestaurantID = &s
	}
	for _, row := range stats {
		resp.Stats = append(resp.Stats, dailyStatRow{
			Status:      row.Status,
			OrderCount:  row.OrderCount,
			TotalAmount: numericToString(row.TotalAmount),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
