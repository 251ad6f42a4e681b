package models

import (
	"time"

	"gorm.io/datatypes"
)

// PendingSyncType identifies the replay handler for an outbox item
type PendingSyncType string

const (
	PendingRapport PendingSyncType = "rapport"
	PendingAlert   PendingSyncType = "alert"
)

// PendingSyncItem is one durable outbox entry: a write that has not been
// acknowledged by the remote authority. Items exist only while offline or
// after a remote failure and are deleted once successfully replayed.
type PendingSyncItem struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Type      PendingSyncType `gorm:"type:varchar(20);index" json:"type"`
	Payload   datatypes.JSON  `json:"payload"`
	CreatedAt time.Time       `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name
func (PendingSyncItem) TableName() string {
	return "pending_sync"
}

// RapportPayload is the outbox payload for a deferred rapport submission:
// the full rapport plus the original in-memory photo payloads.
type RapportPayload struct {
	Rapport Rapport  `json:"rapport"`
	Photos  []string `json:"photos"`
}

// AlertPayload is the outbox payload for a deferred alert creation. The id is
// the one generated at creation time, so a replay that races a concurrent
// sync yields a detectable duplicate instead of a second alert.
type AlertPayload struct {
	ID           string    `json:"id"`
	ChantierID   string    `json:"chantierId"`
	TechnicianID string    `json:"technicianId"`
	AlertType    AlertType `json:"alertType"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}
