package models

import "gorm.io/datatypes"

// Material is a material template attached to a work type
type Material struct {
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	DefaultQuantity float64 `json:"defaultQuantity"`
}

// WorkType is reference data: a named kind of work with its material
// templates, used to prefill rapport quantity lines.
type WorkType struct {
	ID        string                        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string                        `gorm:"index;not null" json:"name"`
	Materials datatypes.JSONSlice[Material] `json:"materials"`
}

// TableName specifies the table name
func (WorkType) TableName() string {
	return "work_types"
}
