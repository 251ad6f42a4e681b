package sync

import (
	"context"
	"log"
	"time"

	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/models"
	"github.com/batizy/chantierpro/internal/remote"
)

type alertRow struct {
	ID           string    `json:"id"`
	ChantierID   string    `json:"chantier_id"`
	TechnicianID string    `json:"technician_id"`
	AlertType    string    `json:"alert_type"`
	Message      string    `json:"message"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r alertRow) toDomain() models.Alert {
	return models.Alert{
		ID:              r.ID,
		ChantierID:      r.ChantierID,
		TechnicianID:    r.TechnicianID,
		AlertType:       models.AlertType(r.AlertType),
		Message:         r.Message,
		IsRead:          r.IsRead,
		RemoteConfirmed: true,
		CreatedAt:       r.CreatedAt,
	}
}

// Alerts is the sync adapter for field alerts
type Alerts struct {
	db         *database.DB
	remote     *remote.Client
	outbox     *Outbox
	configured bool
	online     func() bool
}

// NewAlerts creates the alerts adapter
func NewAlerts(db *database.DB, rc *remote.Client, outbox *Outbox, configured bool, online func() bool) *Alerts {
	return &Alerts{db: db, remote: rc, outbox: outbox, configured: configured, online: online}
}

// PullAll fetches all alerts from the remote authority, newest first, and
// refreshes the local table. Queued offline alerts are replayed before pulls,
// so a drained alert reappears here under its original id.
func (a *Alerts) PullAll(ctx context.Context) []models.Alert {
	if !a.configured {
		return a.localAll()
	}

	var rows []alertRow
	if err := a.remote.Select(ctx, "alerts", remote.NewQuery().Order("created_at", false), &rows); err != nil {
		log.Printf("⚠️ Sync: alerts pull failed, using local data: %v", err)
		return a.localAll()
	}

	alerts := make([]models.Alert, 0, len(rows))
	for _, r := range rows {
		alerts = append(alerts, r.toDomain())
	}

	replaceAll(a.db, alerts)
	return alerts
}

// Create raises a new alert. Remote-first when reachable; offline or on a
// connectivity failure the alert is queued for replay under its generated id.
// The local row is written in every case.
func (a *Alerts) Create(ctx context.Context, alert models.Alert) (string, error) {
	alert.ID = newID()
	alert.CreatedAt = time.Now().UTC()

	if a.configured && a.online() {
		if err := a.insertRemote(ctx, alert); err != nil {
			log.Printf("⚠️ Sync: remote alert create failed, queueing for replay: %v", err)
			a.enqueue(alert)
		} else {
			alert.RemoteConfirmed = true
		}
	} else {
		// Queued even without remote configuration: the outbox is durable
		// and drains on a later launch that has credentials.
		log.Printf("📴 Sync: remote unavailable, queueing alert %s for replay", alert.ID)
		a.enqueue(alert)
	}

	if err := a.db.Create(&alert).Error; err != nil {
		return "", err
	}
	return alert.ID, nil
}

// MarkRead flips one alert's read flag on both sides
func (a *Alerts) MarkRead(ctx context.Context, id string) error {
	if a.configured {
		values := map[string]interface{}{"is_read": true}
		if err := a.remote.Update(ctx, "alerts", remote.NewQuery().Eq("id", id), values); err != nil {
			log.Printf("⚠️ Sync: remote alert read-flag update failed: %v", err)
		}
	}
	return a.db.Model(&models.Alert{}).Where("id = ?", id).Update("is_read", true).Error
}

// MarkAllRead flips every unread alert's read flag on both sides
func (a *Alerts) MarkAllRead(ctx context.Context) error {
	if a.configured {
		q := remote.NewQuery().Eq("is_read", "false")
		if err := a.remote.Update(ctx, "alerts", q, map[string]interface{}{"is_read": true}); err != nil {
			log.Printf("⚠️ Sync: remote bulk alert read-flag update failed: %v", err)
		}
	}
	return a.db.Model(&models.Alert{}).
		Where("is_read = ?", false).
		Update("is_read", true).Error
}

// Replay re-sends a queued alert under its original id. A duplicate-key
// rejection means a previous attempt already landed and counts as success.
func (a *Alerts) Replay(ctx context.Context, payload models.AlertPayload) error {
	alert := models.Alert{
		ID:           payload.ID,
		ChantierID:   payload.ChantierID,
		TechnicianID: payload.TechnicianID,
		AlertType:    payload.AlertType,
		Message:      payload.Message,
		CreatedAt:    payload.CreatedAt,
	}

	err := a.insertRemote(ctx, alert)
	if err != nil && !isConflict(err) {
		return err
	}
	if isConflict(err) {
		log.Printf("ℹ️ Sync: alert %s already exists remotely, treating as synced", alert.ID)
	}

	return a.db.Model(&models.Alert{}).Where("id = ?", alert.ID).Update("remote_confirmed", true).Error
}

func (a *Alerts) insertRemote(ctx context.Context, alert models.Alert) error {
	row := alertRow{
		ID:           alert.ID,
		ChantierID:   alert.ChantierID,
		TechnicianID: alert.TechnicianID,
		AlertType:    string(alert.AlertType),
		Message:      alert.Message,
		IsRead:       alert.IsRead,
		CreatedAt:    alert.CreatedAt,
	}
	return a.remote.Insert(ctx, "alerts", row)
}

func (a *Alerts) enqueue(alert models.Alert) {
	payload := models.AlertPayload{
		ID:           alert.ID,
		ChantierID:   alert.ChantierID,
		TechnicianID: alert.TechnicianID,
		AlertType:    alert.AlertType,
		Message:      alert.Message,
		CreatedAt:    alert.CreatedAt,
	}
	if err := a.outbox.Enqueue(models.PendingAlert, payload); err != nil {
		log.Printf("🚨 Sync: failed to queue alert %s, local copy is the only record: %v", alert.ID, err)
	}
}

func (a *Alerts) localAll() []models.Alert {
	var alerts []models.Alert
	if err := a.db.Order("created_at desc").Find(&alerts).Error; err != nil {
		log.Printf("⚠️ Sync: local alerts read failed: %v", err)
		return nil
	}
	return alerts
}
