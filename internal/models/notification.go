package models

import "time"

// NotificationType categorizes a user notification
type NotificationType string

const (
	NotifNewChantier  NotificationType = "new_chantier"
	NotifModification NotificationType = "modification"
	NotifRapport      NotificationType = "rapport"
	NotifAlert        NotificationType = "alert"
)

// Notification targets a single user (new chantier assignment,
// rapport-pending reminder). Created by system-side triggers.
type Notification struct {
	ID        string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string           `gorm:"index;not null" json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `gorm:"type:varchar(30)" json:"type"`
	RelatedID *string          `json:"relatedId,omitempty"`
	IsRead    bool             `gorm:"default:false;index" json:"isRead"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}
