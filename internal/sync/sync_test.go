package sync

import (
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/batizy/chantierpro/internal/config"
	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/remote"
)

// newTestDB opens an in-memory local store with the full schema
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}

	// Every pooled connection gets its own :memory: database, so keep one
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to access test store pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := &database.DB{DB: gdb}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test store: %v", err)
	}
	return db
}

// newTestRemote builds a remote client pointed at a test server
func newTestRemote(t *testing.T, server *httptest.Server) *remote.Client {
	t.Helper()
	return remote.NewClient(config.RemoteConfig{
		URL:     server.URL,
		AnonKey: "test-anon-key",
		Bucket:  "rapport-photos",
	})
}

func online() bool  { return true }
func offline() bool { return false }
