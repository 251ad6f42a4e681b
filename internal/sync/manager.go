package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/batizy/chantierpro/internal/models"
)

// ErrSyncInProgress is returned when a full sync is requested while another
// one is still running. Callers retry later; syncs are never queued up.
var ErrSyncInProgress = errors.New("sync already in progress")

// Status is a point-in-time snapshot of the sync layer, served to clients so
// the UI can surface connectivity and queue depth.
type Status struct {
	Configured bool       `json:"configured"`
	Online     bool       `json:"online"`
	Syncing    bool       `json:"syncing"`
	Pending    int64      `json:"pendingCount"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
}

// Manager orchestrates the per-entity adapters: full and per-technician
// pulls, outbox replay on reconnect, and the status snapshot. At most one
// full sync runs at a time.
type Manager struct {
	outbox        *Outbox
	users         *Users
	workTypes     *WorkTypes
	chantiers     *Chantiers
	rapports      *Rapports
	alerts        *Alerts
	notifications *Notifications
	monitor       *Monitor
	configured    bool

	mu         sync.Mutex
	syncing    bool
	lastSyncAt *time.Time

	// onStatusChange broadcasts snapshots to connected clients
	onStatusChange func(Status)
}

// NewManager wires the adapters together and registers the reconnect hook
func NewManager(outbox *Outbox, users *Users, workTypes *WorkTypes, chantiers *Chantiers, rapports *Rapports, alerts *Alerts, notifications *Notifications, monitor *Monitor, configured bool) *Manager {
	m := &Manager{
		outbox:        outbox,
		users:         users,
		workTypes:     workTypes,
		chantiers:     chantiers,
		rapports:      rapports,
		alerts:        alerts,
		notifications: notifications,
		monitor:       monitor,
		configured:    configured,
	}
	monitor.SetOnReconnect(m.handleReconnect)
	return m
}

// SetOnStatusChange registers the snapshot broadcast hook. Must be called
// before the monitor starts.
func (m *Manager) SetOnStatusChange(fn func(Status)) {
	m.onStatusChange = fn
}

// Users returns the users adapter
func (m *Manager) Users() *Users { return m.users }

// WorkTypes returns the work types adapter
func (m *Manager) WorkTypes() *WorkTypes { return m.workTypes }

// Chantiers returns the chantiers adapter
func (m *Manager) Chantiers() *Chantiers { return m.chantiers }

// Rapports returns the rapports adapter
func (m *Manager) Rapports() *Rapports { return m.rapports }

// Alerts returns the alerts adapter
func (m *Manager) Alerts() *Alerts { return m.alerts }

// Notifications returns the notifications adapter
func (m *Manager) Notifications() *Notifications { return m.notifications }

// SyncAll replays the outbox and then pulls every table from the remote
// authority. Pull order follows the reference direction of the data: users
// and work types first, then chantiers, then the records pointing at them.
// Returns ErrSyncInProgress when another full sync is already running.
func (m *Manager) SyncAll(ctx context.Context) error {
	if !m.begin() {
		return ErrSyncInProgress
	}
	defer m.end()

	log.Println("🔄 Sync: full sync started")

	m.PushPending(ctx)

	m.users.PullAll(ctx)
	m.workTypes.PullAll(ctx)
	m.chantiers.PullAll(ctx)
	m.alerts.PullAll(ctx)
	m.rapports.PullAll(ctx)

	m.markSynced()
	log.Println("✅ Sync: full sync finished")
	return nil
}

// SyncForTechnician pulls the subset of data one technician works with:
// reference data, their assigned chantiers and their notifications.
func (m *Manager) SyncForTechnician(ctx context.Context, technicianID string) error {
	if !m.begin() {
		return ErrSyncInProgress
	}
	defer m.end()

	log.Printf("🔄 Sync: technician sync started for %s", technicianID)

	m.PushPending(ctx)

	m.workTypes.PullAll(ctx)
	m.chantiers.PullForTechnician(ctx, technicianID)
	m.notifications.PullForUser(ctx, technicianID)

	m.markSynced()
	log.Printf("✅ Sync: technician sync finished for %s", technicianID)
	return nil
}

// PushPending drains the outbox when the remote authority is reachable.
// Returns the number of replayed items.
func (m *Manager) PushPending(ctx context.Context) int {
	if !m.configured || !m.monitor.Online() {
		return 0
	}
	return m.outbox.Drain(ctx, m.dispatch)
}

// CurrentStatus builds the status snapshot
func (m *Manager) CurrentStatus() Status {
	pending, err := m.outbox.Count()
	if err != nil {
		log.Printf("⚠️ Sync: failed to count pending items: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Configured: m.configured,
		Online:     m.monitor.Online(),
		Syncing:    m.syncing,
		Pending:    pending,
		LastSyncAt: m.lastSyncAt,
	}
}

// dispatch routes one outbox item to its replay handler. An item whose
// payload cannot be decoded is unreplayable and is dropped with a log so it
// cannot poison the queue.
func (m *Manager) dispatch(ctx context.Context, item models.PendingSyncItem) error {
	switch item.Type {
	case models.PendingRapport:
		var payload models.RapportPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			log.Printf("🚨 Sync: dropping undecodable rapport item %s: %v", item.ID, err)
			return nil
		}
		return m.rapports.Replay(ctx, payload)
	case models.PendingAlert:
		var payload models.AlertPayload
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			log.Printf("🚨 Sync: dropping undecodable alert item %s: %v", item.ID, err)
			return nil
		}
		return m.alerts.Replay(ctx, payload)
	default:
		log.Printf("🚨 Sync: dropping item %s with unknown type %q", item.ID, item.Type)
		return nil
	}
}

// handleReconnect runs when the monitor observes an offline-to-online
// transition: replay queued writes, then refresh everything.
func (m *Manager) handleReconnect() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := m.SyncAll(ctx); err != nil {
		log.Printf("⚠️ Sync: reconnect sync skipped: %v", err)
	}
	m.broadcast()
}

func (m *Manager) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.syncing {
		return false
	}
	m.syncing = true
	return true
}

func (m *Manager) end() {
	m.mu.Lock()
	m.syncing = false
	m.mu.Unlock()
	m.broadcast()
}

func (m *Manager) markSynced() {
	now := time.Now().UTC()
	m.mu.Lock()
	m.lastSyncAt = &now
	m.mu.Unlock()
}

func (m *Manager) broadcast() {
	if m.onStatusChange != nil {
		m.onStatusChange(m.CurrentStatus())
	}
}
