package sync

import (
	"context"
	"testing"
	"time"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/models"
)

func newLocalOnlyManager(t *testing.T, db *database.DB) *Manager {
	t.Helper()
	outbox := NewOutbox(db)
	monitor := NewMonitor(nil, false, time.Minute)
	return NewManager(
		outbox,
		NewUsers(db, nil, false),
		NewWorkTypes(db, nil, false),
		NewChantiers(db, nil, false),
		NewRapports(db, nil, nil, outbox, false, monitor.Online),
		NewAlerts(db, nil, outbox, false, monitor.Online),
		NewNotifications(db, nil, false),
		monitor,
		false,
	)
}

func TestSyncAllLocalOnly(t *testing.T) {
	db := newTestDB(t)
	if err := db.SeedDemoData(); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	manager := newLocalOnlyManager(t, db)

	if err := manager.SyncAll(context.Background()); err != nil {
		t.Fatalf("Local-only sync should succeed, got %v", err)
	}

	status := manager.CurrentStatus()
	if status.Configured || status.Online || status.Syncing {
		t.Errorf("Local-only status wrong: %+v", status)
	}
	if status.LastSyncAt == nil {
		t.Error("LastSyncAt should be recorded")
	}

	// The seeded data survives a local-only sync untouched
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 9 {
		t.Errorf("Expected 9 demo users after sync, got %d", count)
	}
}

func TestPushPendingLocalOnlyIsNoop(t *testing.T) {
	db := newTestDB(t)
	manager := newLocalOnlyManager(t, db)

	// Force an item in to show PushPending leaves it alone while offline
	if err := manager.Alerts().outbox.Enqueue(models.PendingAlert, models.AlertPayload{ID: "a1"}); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	if replayed := manager.PushPending(context.Background()); replayed != 0 {
		t.Errorf("Local-only drain should replay nothing, got %d", replayed)
	}

	count, _ := manager.Alerts().outbox.Count()
	if count != 1 {
		t.Errorf("Queued item should survive, got %d", count)
	}
}

func TestDispatchDropsUndecodableItems(t *testing.T) {
	db := newTestDB(t)
	manager := newLocalOnlyManager(t, db)

	item := models.PendingSyncItem{
		ID:        "bad-1",
		Type:      models.PendingRapport,
		Payload:   []byte("not json"),
		CreatedAt: time.Now(),
	}
	if err := manager.dispatch(context.Background(), item); err != nil {
		t.Errorf("Undecodable item must be dropped, not retried: %v", err)
	}

	unknown := models.PendingSyncItem{
		ID:        "bad-2",
		Type:      "mystery",
		Payload:   []byte("{}"),
		CreatedAt: time.Now(),
	}
	if err := manager.dispatch(context.Background(), unknown); err != nil {
		t.Errorf("Unknown item type must be dropped, not retried: %v", err)
	}
}
