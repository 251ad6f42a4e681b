package database

import (
	"log"
	"time"

	"gorm.io/datatypes"

	"github.com/batizy/chantierpro/internal/models"
)

func strPtr(s string) *string { return &s }

// demoUsers are the fixed offline access codes. They mirror the rows seeded
// in the remote authority so a first launch without connectivity can still
// authenticate every account.
var demoUsers = []models.User{
	{ID: "admin-001", Name: "Pierre Dupont", Code: "0001", Role: models.RoleAdmin, Phone: strPtr("0600000001"), IsActive: true},
	{ID: "admin-002", Name: "Marie Dupont", Code: "0000", Role: models.RoleAdmin, Phone: strPtr("0600000000"), IsActive: true},
	{ID: "tech-001", Name: "Jean Martin", Code: "1234", Role: models.RoleTechnician, Phone: strPtr("0611111111"), IsActive: true},
	{ID: "tech-002", Name: "Luc Bernard", Code: "2345", Role: models.RoleTechnician, Phone: strPtr("0622222222"), IsActive: true},
	{ID: "tech-003", Name: "Marc Durand", Code: "3456", Role: models.RoleTechnician, Phone: strPtr("0633333333"), IsActive: true},
	{ID: "tech-004", Name: "Paul Moreau", Code: "4567", Role: models.RoleTechnician, Phone: strPtr("0644444444"), IsActive: true},
	{ID: "tech-005", Name: "Antoine Lefebvre", Code: "5678", Role: models.RoleTechnician, Phone: strPtr("0655555555"), IsActive: true},
	{ID: "tech-006", Name: "Thomas Petit", Code: "6789", Role: models.RoleTechnician, Phone: strPtr("0666666666"), IsActive: true},
	{ID: "tech-007", Name: "Nicolas Roux", Code: "7890", Role: models.RoleTechnician, Phone: strPtr("0677777777"), IsActive: true},
}

var demoWorkTypes = []models.WorkType{
	{ID: "wt-001", Name: "Couverture", Materials: datatypes.NewJSONSlice([]models.Material{
		{Name: "Tuiles", Unit: "m²"},
		{Name: "Ardoises", Unit: "m²"},
		{Name: "Liteaux", Unit: "ml"},
		{Name: "Gouttières", Unit: "ml"},
	})},
	{ID: "wt-002", Name: "Plomberie", Materials: datatypes.NewJSONSlice([]models.Material{
		{Name: "Tuyaux cuivre", Unit: "ml"},
		{Name: "Tuyaux PVC", Unit: "ml"},
		{Name: "Raccords", Unit: "pièces"},
		{Name: "Joints", Unit: "pièces"},
	})},
	{ID: "wt-003", Name: "Électricité", Materials: datatypes.NewJSONSlice([]models.Material{
		{Name: "Câble électrique", Unit: "ml"},
		{Name: "Prises", Unit: "pièces"},
		{Name: "Interrupteurs", Unit: "pièces"},
		{Name: "Disjoncteurs", Unit: "pièces"},
	})},
	{ID: "wt-004", Name: "Maçonnerie", Materials: datatypes.NewJSONSlice([]models.Material{
		{Name: "Ciment", Unit: "sacs"},
		{Name: "Sable", Unit: "m³"},
		{Name: "Parpaings", Unit: "pièces"},
		{Name: "Béton", Unit: "m³"},
	})},
}

// SeedDemoData inserts the demo users and work types when the local tables
// are empty, so the app is usable on first launch with no remote configured.
func (db *DB) SeedDemoData() error {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
		log.Println("🌱 Seeding demo users...")
		now := time.Now().UTC()
		users := make([]models.User, len(demoUsers))
		copy(users, demoUsers)
		for i := range users {
			users[i].CreatedAt = now
		}
		if err := db.Create(&users).Error; err != nil {
			return err
		}
	}

	var wtCount int64
	if err := db.Model(&models.WorkType{}).Count(&wtCount).Error; err != nil {
		return err
	}
	if wtCount == 0 {
		log.Println("🌱 Seeding demo work types...")
		workTypes := make([]models.WorkType, len(demoWorkTypes))
		copy(workTypes, demoWorkTypes)
		if err := db.Create(&workTypes).Error; err != nil {
			return err
		}
	}

	log.Println("✅ Local store seeded")
	return nil
}
