package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/batizy/chantierpro/internal/models"
)

func TestAuthenticateLocalFallback(t *testing.T) {
	db := newTestDB(t)
	if err := db.SeedDemoData(); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	users := NewUsers(db, nil, false)

	user, err := users.Authenticate(context.Background(), "0000")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user == nil {
		t.Fatal("Expected demo admin for code 0000")
	}
	if user.Name != "Marie Dupont" || user.Role != models.RoleAdmin {
		t.Errorf("Wrong user resolved: %s (%s)", user.Name, user.Role)
	}
}

func TestAuthenticateUnknownCode(t *testing.T) {
	db := newTestDB(t)
	if err := db.SeedDemoData(); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	users := NewUsers(db, nil, false)

	user, err := users.Authenticate(context.Background(), "9999")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user != nil {
		t.Errorf("Unknown code must not authenticate, got %s", user.Name)
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	db := newTestDB(t)
	inactive := models.User{ID: "u1", Name: "Ancien Employé", Code: "4321", Role: models.RoleTechnician, IsActive: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	users := NewUsers(db, nil, false)

	user, err := users.Authenticate(context.Background(), "4321")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user != nil {
		t.Error("Inactive user must not authenticate")
	}
}

func TestAuthenticateRemoteFailureFallsBackToLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	db := newTestDB(t)
	if err := db.SeedDemoData(); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	users := NewUsers(db, newTestRemote(t, server), true)

	user, err := users.Authenticate(context.Background(), "1234")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user == nil || user.Name != "Jean Martin" {
		t.Errorf("Expected local fallback to resolve Jean Martin, got %+v", user)
	}
}

func TestPullAllRefreshesLocalTable(t *testing.T) {
	rows := []map[string]interface{}{
		{"id": "u-remote-1", "name": "Alice Girard", "code": "1111", "role": "technicien", "is_active": true, "created_at": "2026-01-05T09:00:00Z"},
		{"id": "u-remote-2", "name": "Bruno Faure", "code": "2222", "role": "admin", "is_active": true, "created_at": "2026-01-05T09:00:00Z"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/users" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "test-anon-key" {
			t.Error("Missing apikey header")
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer server.Close()

	db := newTestDB(t)
	stale := models.User{ID: "u-stale", Name: "Parti Depuis", Code: "9876", Role: models.RoleTechnician, IsActive: true}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("Failed to create stale row: %v", err)
	}

	users := NewUsers(db, newTestRemote(t, server), true)

	result := users.PullAll(context.Background())
	if len(result) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(result))
	}

	// The stale local row must be gone after the refresh
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 2 {
		t.Errorf("Expected local table to hold 2 rows, got %d", count)
	}
	var gone models.User
	if err := db.First(&gone, "id = ?", "u-stale").Error; err == nil {
		t.Error("Stale row should have been removed by the refresh")
	}
}

func TestPullAllPreservesInactiveFlag(t *testing.T) {
	rows := []map[string]interface{}{
		{"id": "u-1", "name": "Ancien Employé", "code": "4321", "role": "technicien", "is_active": false, "created_at": "2026-01-05T09:00:00Z"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rows)
	}))
	defer server.Close()

	db := newTestDB(t)
	users := NewUsers(db, newTestRemote(t, server), true)
	users.PullAll(context.Background())

	// A user deactivated at the authority must stay deactivated in the
	// mirror, so the revoked code fails even through the local fallback.
	var stored models.User
	if err := db.First(&stored, "id = ?", "u-1").Error; err != nil {
		t.Fatalf("Mirrored user not found: %v", err)
	}
	if stored.IsActive {
		t.Error("Inactive flag was lost by the refresh")
	}

	user, err := users.localAuthenticate("4321")
	if err != nil {
		t.Fatalf("localAuthenticate failed: %v", err)
	}
	if user != nil {
		t.Error("Revoked code must not authenticate locally")
	}
}

func TestPullAllUnconfiguredReturnsLocal(t *testing.T) {
	db := newTestDB(t)
	if err := db.SeedDemoData(); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	users := NewUsers(db, nil, false)

	result := users.PullAll(context.Background())
	if len(result) != 9 {
		t.Errorf("Expected the 9 demo users, got %d", len(result))
	}
}
