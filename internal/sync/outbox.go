package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/models"
)

// Outbox is the durable queue of writes not yet acknowledged by the remote
// authority. Items are replayed oldest-first and removed only on confirmed
// success, so a crash mid-drain never loses an operation.
type Outbox struct {
	db *database.DB
}

// NewOutbox creates an outbox over the local store
func NewOutbox(db *database.DB) *Outbox {
	return &Outbox{db: db}
}

// Enqueue appends one deferred operation. The payload is serialized as-is and
// interpreted again by the replay dispatcher.
func (o *Outbox) Enqueue(itemType models.PendingSyncType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("outbox: failed to serialize %s payload: %w", itemType, err)
	}

	item := models.PendingSyncItem{
		ID:        newID(),
		Type:      itemType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.db.Create(&item).Error; err != nil {
		return fmt.Errorf("outbox: failed to persist %s item: %w", itemType, err)
	}

	log.Printf("📥 Outbox: queued %s for later sync", itemType)
	return nil
}

// Count returns the number of queued items
func (o *Outbox) Count() (int64, error) {
	var count int64
	err := o.db.Model(&models.PendingSyncItem{}).Count(&count).Error
	return count, err
}

// Items returns the queued items oldest-first
func (o *Outbox) Items() ([]models.PendingSyncItem, error) {
	var items []models.PendingSyncItem
	err := o.db.Order("created_at asc").Find(&items).Error
	return items, err
}

// Drain replays every queued item through dispatch in FIFO order. An item is
// deleted only after dispatch returns nil; a failed item stays queued for the
// next drain and does not block the items behind it. Returns the number of
// successfully replayed items.
func (o *Outbox) Drain(ctx context.Context, dispatch func(ctx context.Context, item models.PendingSyncItem) error) int {
	items, err := o.Items()
	if err != nil {
		log.Printf("⚠️ Outbox: failed to read queued items: %v", err)
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	log.Printf("🔄 Outbox: replaying %d queued item(s)", len(items))
	replayed := 0
	for _, item := range items {
		if err := dispatch(ctx, item); err != nil {
			log.Printf("⚠️ Outbox: %s item %s failed, will retry later: %v", item.Type, item.ID, err)
			continue
		}
		if err := o.db.Delete(&models.PendingSyncItem{}, "id = ?", item.ID).Error; err != nil {
			log.Printf("⚠️ Outbox: failed to remove replayed item %s: %v", item.ID, err)
			continue
		}
		replayed++
	}

	log.Printf("✅ Outbox: replayed %d/%d item(s)", replayed, len(items))
	return replayed
}
