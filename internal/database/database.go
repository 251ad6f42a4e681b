package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/batizy/chantierpro/internal/config"
	"github.com/batizy/chantierpro/internal/models"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// DB wraps gorm.DB and includes a reference to an embedded process if active.
// It is the local store: all reads and writes against it stay on-device and
// never block on the network.
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Connect opens the local store. Three drivers are supported:
// "sqlite" (default, single file, pure Go), "embedded" (embedded PostgreSQL,
// zero-config) and "postgres" (external server).
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var dialector gorm.Dialector
	var embedded *embeddedpostgres.EmbeddedPostgres

	switch cfg.Driver {
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		log.Printf("📦 Local store: [SQLite] %s", cfg.Path)
		dialector = sqlite.Open(cfg.Path)

	case "embedded":
		log.Println("📦 Local store: [Embedded PostgreSQL] - initializing internal database...")

		// An unclean shutdown leaves a lock that blocks the next start
		pidFile := filepath.Join(embeddedDataPath, "postmaster.pid")
		if _, err := os.Stat(pidFile); err == nil {
			log.Println("🧹 Removing stale postmaster.pid from previous run")
			_ = os.Remove(pidFile)
		}

		embeddedCfg := embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password("postgres")

		embedded = embeddedpostgres.NewDatabase(embeddedCfg)
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}
		log.Printf("✅ Embedded PostgreSQL started on port %d", embeddedPort)

		dsn := fmt.Sprintf(
			"host=localhost port=%s user=%s password=postgres dbname=%s sslmode=disable",
			strconv.Itoa(embeddedPort), cfg.Username, cfg.Database,
		)
		dialector = postgres.Open(dsn)

	case "postgres":
		log.Printf("🌐 Local store: [External PostgreSQL] %s:%s", cfg.Host, cfg.Port)
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database,
		)
		dialector = postgres.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported local store driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	log.Println("✅ Local store ready")

	return &DB{DB: db, embedded: embedded}, nil
}

// Migrate synchronizes the local store schema with the domain models
func (db *DB) Migrate() error {
	return db.DB.AutoMigrate(
		&models.User{},
		&models.Chantier{},
		&models.Rapport{},
		&models.Alert{},
		&models.Notification{},
		&models.WorkType{},
		&models.PendingSyncItem{},
	)
}

// ResetTable drops and recreates one table. This is the last-resort recovery
// for a corrupted local table and destroys its data; callers must have
// already logged the failure that led here.
func (db *DB) ResetTable(model interface{}) error {
	log.Printf("🚨 Local store: dropping and recreating table for %T - local data for this table is lost", model)
	if err := db.DB.Migrator().DropTable(model); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	return db.DB.AutoMigrate(model)
}

// Close shuts down the local store and the embedded process if one is active
func (db *DB) Close() error {
	if db.embedded != nil {
		log.Println("🛑 Stopping embedded PostgreSQL process...")
		_ = db.embedded.Stop()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
