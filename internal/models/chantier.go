package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChantierStatus is the lifecycle phase of a chantier. The values are the
// remote authority's wire values, kept as-is so local rows mirror remote rows.
type ChantierStatus string

const (
	StatusUpcoming   ChantierStatus = "a_venir"
	StatusInProgress ChantierStatus = "en_cours"
	StatusCompleted  ChantierStatus = "termine"
)

// Chantier represents a scheduled on-site work engagement with a client,
// assigned technicians and a time window.
//
// TechnicianIDs is materialized from the remote chantier_technicians join
// table on every pull; locally it is stored as a JSON column so the record
// stays self-contained offline.
type Chantier struct {
	ID            string                      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ClientName    string                      `gorm:"not null" json:"clientName"`
	ClientPhone   string                      `json:"clientPhone"`
	ClientEmail   *string                     `json:"clientEmail,omitempty"`
	Address       string                      `json:"address"`
	WorkType      string                      `json:"workType"`
	StartDatetime time.Time                   `gorm:"index" json:"startDatetime"`
	EndDatetime   time.Time                   `json:"endDatetime"`
	Status        ChantierStatus              `gorm:"type:varchar(20);index" json:"status"`
	Notes         *string                     `json:"notes,omitempty"`
	TechnicianIDs datatypes.JSONSlice[string] `json:"technicianIds"`
	CreatedBy     string                      `json:"createdBy"`

	// RemoteConfirmed marks rows whose remote write has been acknowledged.
	// A false value after a create means the row exists only locally and the
	// discrepancy is repairable on the next sync.
	RemoteConfirmed bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Chantier) TableName() string {
	return "chantiers"
}
