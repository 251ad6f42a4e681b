package models

import "time"

// UserRole defines the access level of a user
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleTechnician UserRole = "technicien"
)

// User represents a field technician or an administrator.
// The access code is the sole credential: a short numeric string matched
// exactly against an active user record.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Role      UserRole  `gorm:"type:varchar(20);not null;index" json:"role"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `gorm:"index" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
