package main

import (
	"log"

	"github.com/batizy/chantierpro/internal/config"
	"github.com/batizy/chantierpro/internal/database"
)

// Seeds the local store with the demo users and work types, then exits.
// Useful for preparing a device image before first launch.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}
	if err := db.SeedDemoData(); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
}
