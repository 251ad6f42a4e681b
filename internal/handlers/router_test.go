package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/batizy/chantierpro/internal/config"
	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/sync"
	"github.com/batizy/chantierpro/internal/websocket"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}

	// Every pooled connection gets its own :memory: database, so keep one
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to access test store pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := &database.DB{DB: gdb}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	if err := db.SeedDemoData(); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	cfg := &config.Config{Port: "0", JWTSecret: "test-secret"}
	outbox := sync.NewOutbox(db)
	monitor := sync.NewMonitor(nil, false, time.Minute)
	manager := sync.NewManager(
		outbox,
		sync.NewUsers(db, nil, false),
		sync.NewWorkTypes(db, nil, false),
		sync.NewChantiers(db, nil, false),
		sync.NewRapports(db, nil, nil, outbox, false, monitor.Online),
		sync.NewAlerts(db, nil, outbox, false, monitor.Online),
		sync.NewNotifications(db, nil, false),
		monitor,
		false,
	)

	hub := websocket.NewHub()
	go hub.Run()

	return NewRouter(cfg, manager, hub)
}

func loginAs(t *testing.T, router *Router, code string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"code": code})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	return resp.Token
}

func TestLoginWithDemoCode(t *testing.T) {
	router := newTestRouter(t)

	token := loginAs(t, router, "0000")
	if token == "" {
		t.Error("Expected a session token")
	}
}

func TestLoginRejectsUnknownCode(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"code": "9999"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/worktypes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestWorkTypesWithSession(t *testing.T) {
	router := newTestRouter(t)
	token := loginAs(t, router, "1234")

	req := httptest.NewRequest(http.MethodGet, "/api/worktypes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var types []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &types); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(types) != 4 {
		t.Errorf("Expected the 4 demo work types, got %d", len(types))
	}
}

func TestCreateChantierRequiresAdmin(t *testing.T) {
	router := newTestRouter(t)
	token := loginAs(t, router, "1234") // technician

	body, _ := json.Marshal(map[string]interface{}{
		"clientName":    "M. Blanc",
		"startDatetime": time.Now().Add(time.Hour).Format(time.RFC3339),
		"endDatetime":   time.Now().Add(9 * time.Hour).Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/chantiers", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for technician, got %d", rec.Code)
	}
}

func TestCreateAndFetchChantier(t *testing.T) {
	router := newTestRouter(t)
	adminToken := loginAs(t, router, "0001")

	body, _ := json.Marshal(map[string]interface{}{
		"clientName":    "Mme Caron",
		"clientPhone":   "0612345678",
		"address":       "2 rue du Port",
		"workType":      "Plomberie",
		"startDatetime": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"endDatetime":   time.Now().Add(9 * time.Hour).UTC().Format(time.RFC3339),
		"technicianIds": []string{"tech-001"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/chantiers", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created map[string]string
	json.Unmarshal(rec.Body.Bytes(), &created)

	// The assigned technician sees it in their scoped list
	techToken := loginAs(t, router, "1234")
	req = httptest.NewRequest(http.MethodGet, "/api/chantiers", nil)
	req.Header.Set("Authorization", "Bearer "+techToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var chantiers []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &chantiers)
	if len(chantiers) != 1 {
		t.Fatalf("Expected 1 assigned chantier, got %d", len(chantiers))
	}
	if chantiers[0]["id"] != created["id"] {
		t.Errorf("Wrong chantier in scoped list: %v", chantiers[0]["id"])
	}

	// The assignment produced a notification for the technician
	req = httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+techToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var notifications []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &notifications)
	if len(notifications) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifications))
	}
}

func TestMarkAllAlertsReadRoute(t *testing.T) {
	router := newTestRouter(t)
	techToken := loginAs(t, router, "1234")

	for _, msg := range []string{"Retard livraison", "Manque de tuiles"} {
		body, _ := json.Marshal(map[string]string{
			"chantierId": "ch-1",
			"alertType":  "retard",
			"message":    msg,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/alerts", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+techToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodPut, "/api/alerts/read-all", nil)
	req.Header.Set("Authorization", "Bearer "+techToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	req.Header.Set("Authorization", "Bearer "+techToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var alerts []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &alerts)
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}
	for _, alert := range alerts {
		if alert["isRead"] != true {
			t.Errorf("Alert %v still unread after read-all", alert["id"])
		}
	}
}

func TestSyncStatusSnapshot(t *testing.T) {
	router := newTestRouter(t)
	token := loginAs(t, router, "0001")

	req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var status map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status["configured"] != false || status["online"] != false {
		t.Errorf("Local-only status wrong: %v", status)
	}
}
