package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mealdesk/api/internal/config"
	"github.com/mealdesk/api/internal/cutoff"
	"github.com/mealdesk/api/internal/database"
	"github.com/mealdesk/api/internal/enum"
	"github.com/mealdesk/api/internal/handler"
	mw "github.com/mealdesk/api/internal/middleware"
	"github.com/mealdesk/api/internal/service"
	"github.com/mealdesk/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	clock := cutoff.SystemClock{}

	// Cut-off bounds come from config; a broken value here is a
	// deployment error, fail fast.
	defaultCutoff := cutoff.MustParse(cfg.DefaultCutoffTime)
	defaultOpen := cutoff.MustParse(cfg.OrderingOpenTime)
	defaultClose := cutoff.MustParse(cfg.OrderingCloseTime)

	resolver := cutoff.NewResolver(queries, defaultCutoff)

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore)

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	orderHandler := handler.NewOrderHandler(orderService, queries, queries, resolver, clock, hub, defaultOpen, defaultClose)
	locationHandler := handler.NewLocationHandler(queries)
	restaurantHandler := handler.NewRestaurantHandler(queries)
	menuHandler := handler.NewMenuHandler(queries)
	settingsHandler := handler.NewSettingsHandler(queries, clock, defaultOpen, defaultClose, defaultCutoff)
	reportHandler := handler.NewReportHandler(queries, clock)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)

	r.Get("/ordering/status", settingsHandler.OrderingStatus)
	r.Get("/menu/today", menuHandler.Today)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Get("/auth/me", authHandler.Me)

		r.Get("/locations", locationHandler.List)
		r.Get("/locations/{id}", locationHandler.Get)
		r.Get("/restaurants", restaurantHandler.List)
		r.Get("/restaurants/{id}", restaurantHandler.Get)

		// Customer order flow
		r.Post("/orders", orderHandler.Submit)
		r.Get("/orders/me", orderHandler.ListMine)
		r.Put("/orders/{id}", orderHandler.Replace)
		r.Delete("/orders/{id}", orderHandler.Cancel)

		// Staff order flow
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleRestaurant))
			r.Get("/orders", orderHandler.ListForDate)
			r.Patch("/orders/{id}/status", orderHandler.UpdateStatus)
			r.Get("/reports/daily", reportHandler.Daily)
		})

		// Admin-only management
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))

			r.Post("/users", authHandler.CreateUser)

			r.Post("/locations", locationHandler.Create)
			r.Put("/locations/{id}", locationHandler.Update)
			r.Delete("/locations/{id}", locationHandler.Deactivate)

			r.Post("/restaurants", restaurantHandler.Create)
			r.Put("/restaurants/{id}", restaurantHandler.Update)
			r.Put("/restaurants/{id}/locations", restaurantHandler.UpsertCoverage)
			r.Get("/restaurants/{id}/locations", restaurantHandler.ListCoverage)
			r.Post("/restaurants/{id}/postal-codes", restaurantHandler.AddPostalCode)
			r.Get("/restaurants/{id}/postal-codes", restaurantHandler.ListPostalCodes)
			r.Delete("/restaurants/{id}/postal-codes/{code}", restaurantHandler.DeletePostalCode)

			r.Post("/menu", menuHandler.Create)
			r.Get("/menu/{id}", menuHandler.Get)
			r.Put("/menu/{id}", menuHandler.Update)

			r.Get("/settings/order-window", settingsHandler.GetOrderWindow)
			r.Put("/settings/order-window", settingsHandler.UpdateOrderWindow)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
