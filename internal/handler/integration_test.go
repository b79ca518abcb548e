//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/mealdesk/api/internal/config"
	"github.com/mealdesk/api/internal/database"
	"github.com/mealdesk/api/internal/router"
	"github.com/mealdesk/api/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full ordering lifecycle against a
// real PostgreSQL database: admin setup, customer submission, the
// dedupe guard, and the staff status flow.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	// Wide-open cut-off and window so the test is independent of the
	// wall clock it runs at.
	cfg := &config.Config{
		Port:              "8081",
		DatabaseURL:       connStr,
		JWTSecret:         "integration-test-secret",
		DefaultCutoffTime: "23:59",
		OrderingOpenTime:  "00:00",
		OrderingCloseTime: "23:59",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, pool, hub)
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap admin (manual DB insert) ---
	adminID := createAdminUser(t, ctx, pool)

	// --- 2. Login as admin ---
	adminToken := login(t, server, "admin@test.com", "password123")

	// --- 3. Admin creates a location and a restaurant ---
	locationResp := httpPostJSON(t, server, "/locations", map[string]interface{}{
		"company_name": "Acme GmbH",
		"address":      "123 Test St",
		"postal_code":  "10115",
	}, adminToken)
	locationID := uuid.MustParse(locationResp["id"].(string))

	restaurantResp := httpPostJSON(t, server, "/restaurants", map[string]interface{}{
		"name": "Test Kitchen",
	}, adminToken)
	restaurantID := uuid.MustParse(restaurantResp["id"].(string))

	// --- 4. Register the served postal code, then map the restaurant ---
	httpPostJSON(t, server, fmt.Sprintf("/restaurants/%s/postal-codes", restaurantID), map[string]interface{}{
		"postal_code": "10115",
	}, adminToken)

	httpPutJSON(t, server, fmt.Sprintf("/restaurants/%s/locations", restaurantID), map[string]interface{}{
		"location_id": locationID.String(),
		"is_active":   true,
	}, adminToken)

	// --- 5. Admin creates a menu item ---
	menuResp := httpPostJSON(t, server, "/menu", map[string]interface{}{
		"restaurant_id": restaurantID.String(),
		"name":          "Lunch Special",
		"price":         "12.50",
		"category":      "mains",
	}, adminToken)
	menuItemID := uuid.MustParse(menuResp["id"].(string))

	// --- 6. Customer registers and logs in ---
	httpPostJSON(t, server, "/auth/register", map[string]interface{}{
		"email":     "customer@test.com",
		"password":  "password123",
		"full_name": "Test Customer",
	}, "")
	customerToken := login(t, server, "customer@test.com", "password123")

	// --- 7. Customer submits an order ---
	submitBody := map[string]interface{}{
		"location_id":    locationID.String(),
		"restaurant_id":  restaurantID.String(),
		"payment_method": "CASH",
		"items": []map[string]interface{}{
			{"menu_item_id": menuItemID.String(), "quantity": 2},
		},
	}
	orderResp := httpPostJSON(t, server, "/orders", submitBody, customerToken)
	orderID := uuid.MustParse(orderResp["id"].(string))
	orderNumber := orderResp["order_number"].(string)

	if orderResp["is_new"] != true {
		t.Fatal("first submission should be new")
	}
	if orderResp["total_amount"].(string) != "25.00" {
		t.Fatalf("total_amount: got %s, want 25.00", orderResp["total_amount"])
	}
	if orderResp["status"].(string) != "pending" {
		t.Fatalf("status: got %s, want pending", orderResp["status"])
	}

	// --- 8. Identical resubmission is idempotent ---
	resubmitResp := httpPostJSON(t, server, "/orders", submitBody, customerToken)
	if resubmitResp["is_new"] != false {
		t.Fatal("identical resubmission should not be new")
	}
	if resubmitResp["id"].(string) != orderID.String() {
		t.Fatal("resubmission must return the same order")
	}
	if resubmitResp["order_number"].(string) != orderNumber {
		t.Fatal("order number must survive resubmission")
	}

	// --- 9. Changed content replaces the order, keeping its number ---
	submitBody["items"] = []map[string]interface{}{
		{"menu_item_id": menuItemID.String(), "quantity": 3},
	}
	replaceResp := httpPostJSON(t, server, "/orders", submitBody, customerToken)
	if replaceResp["is_new"] != false {
		t.Fatal("replacement should not be new")
	}
	if replaceResp["order_number"].(string) != orderNumber {
		t.Fatal("order number must survive replacement")
	}
	if replaceResp["total_amount"].(string) != "37.50" {
		t.Fatalf("replaced total_amount: got %s, want 37.50", replaceResp["total_amount"])
	}

	// --- 10. Admin creates restaurant staff; staff confirms the order ---
	httpPostJSON(t, server, "/users", map[string]interface{}{
		"email":         "staff@test.com",
		"password":      "password123",
		"full_name":     "Test Staff",
		"role":          "RESTAURANT",
		"restaurant_id": restaurantID.String(),
	}, adminToken)
	staffToken := login(t, server, "staff@test.com", "password123")

	confirmResp := httpPatchJSON(t, server, fmt.Sprintf("/orders/%s/status", orderID), map[string]interface{}{
		"status": "confirmed",
	}, staffToken)
	if confirmResp["status"].(string) != "confirmed" {
		t.Fatalf("status after confirm: got %s, want confirmed", confirmResp["status"])
	}
	if confirmResp["confirmed_at"] == nil {
		t.Fatal("confirmed_at should be stamped")
	}

	// --- 11. Skipping a state is rejected ---
	rr := httpDo(t, server, "PATCH", fmt.Sprintf("/orders/%s/status", orderID), map[string]interface{}{
		"status": "delivered",
	}, staffToken)
	if rr.StatusCode != http.StatusConflict {
		t.Fatalf("confirmed -> delivered: got %d, want 409", rr.StatusCode)
	}

	// --- 12. Daily report reflects the order ---
	reportResp := httpGetJSON(t, server, "/reports/daily", staffToken)
	stats := reportResp["stats"].([]interface{})
	if len(stats) != 1 {
		t.Fatalf("report rows: got %d, want 1", len(stats))
	}
	row := stats[0].(map[string]interface{})
	if row["status"].(string) != "confirmed" || row["order_count"].(float64) != 1 {
		t.Fatalf("unexpected report row: %+v", row)
	}

	t.Logf("Integration test passed: container=%s, admin=%s, order=%s (%s)",
		pgContainer.GetContainerID(), adminID, orderID, orderNumber)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("mealdesk_test"),
		tcpostgres.WithUsername("mealdesk"),
		tcpostgres.WithPassword("mealdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createAdminUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (email, hashed_password, full_name, role)
		 VALUES ($1, $2, $3, 'ADMIN')
		 RETURNING id`,
		"admin@test.com", string(hashedPassword), "Test Admin",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create admin user: %v", err)
	}
	return id
}

// --- API call helpers ---

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

func httpDo(t *testing.T, server *httptest.Server, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, method, path string) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errBody)
		t.Fatalf("%s %s: status %d, body %+v", method, path, resp.StatusCode, errBody)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return out
}

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body interface{}, token string) map[string]interface{} {
	t.Helper()
	return decodeJSON(t, httpDo(t, server, "POST", path, body, token), "POST", path)
}

func httpPutJSON(t *testing.T, server *httptest.Server, path string, body interface{}, token string) map[string]interface{} {
	t.Helper()
	return decodeJSON(t, httpDo(t, server, "PUT", path, body, token), "PUT", path)
}

func httpPatchJSON(t *testing.T, server *httptest.Server, path string, body interface{}, token string) map[string]interface{} {
	t.Helper()
	return decodeJSON(t, httpDo(t, server, "PATCH", path, body, token), "PATCH", path)
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	return decodeJSON(t, httpDo(t, server, "GET", path, nil, token), "GET", path)
}
