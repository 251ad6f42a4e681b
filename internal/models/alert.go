package models

import "time"

// AlertType categorizes a technician alert
type AlertType string

const (
	AlertDelay        AlertType = "retard"
	AlertCancellation AlertType = "annulation"
	AlertMaterials    AlertType = "besoin_materiel"
	AlertOther        AlertType = "autre"
)

// Alert is raised by a technician from the field (delay, cancellation,
// materials needed). Mutated only by read-flag transitions after creation.
type Alert struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ChantierID   string    `gorm:"index;not null" json:"chantierId"`
	TechnicianID string    `gorm:"index;not null" json:"technicianId"`
	AlertType    AlertType `gorm:"type:varchar(30)" json:"alertType"`
	Message      string    `json:"message"`
	IsRead       bool      `gorm:"default:false;index" json:"isRead"`

	RemoteConfirmed bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name
func (Alert) TableName() string {
	return "alerts"
}
