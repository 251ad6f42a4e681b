package models

import (
	"time"

	"gorm.io/datatypes"
)

// RapportStatus is the submission state of a rapport
type RapportStatus string

const (
	RapportDraft     RapportStatus = "draft"
	RapportSubmitted RapportStatus = "submitted"
)

// QuantityUsed is one material usage line of a rapport
type QuantityUsed struct {
	Material string  `json:"material"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Rapport is the end-of-job record a technician submits: materials used,
// issues, extra work, client signature and photos. A rapport lives in memory
// as a draft during the wizard and is persisted only at submission.
type Rapport struct {
	ID                   string                            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ChantierID           string                            `gorm:"index;not null" json:"chantierId"`
	TechnicianID         string                            `gorm:"index;not null" json:"technicianId"`
	StartTime            time.Time                         `json:"startTime"`
	EndTime              *time.Time                        `json:"endTime,omitempty"`
	QuantitiesUsed       datatypes.JSONSlice[QuantityUsed] `json:"quantitiesUsed"`
	HasProblems          bool                              `json:"hasProblems"`
	ProblemsDescription  *string                           `json:"problemsDescription,omitempty"`
	HasExtraWork         bool                              `json:"hasExtraWork"`
	ExtraWorkDescription *string                           `json:"extraWorkDescription,omitempty"`
	ClientSignature      *string                           `json:"clientSignature,omitempty"` // base64 image payload
	PhotoURLs            datatypes.JSONSlice[string]       `json:"photoUrls"`
	Status               RapportStatus                     `gorm:"type:varchar(20);index" json:"status"`

	RemoteConfirmed bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`
}

// TableName specifies the table name
func (Rapport) TableName() string {
	return "rapports"
}
