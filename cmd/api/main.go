package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/batizy/chantierpro/internal/config"
	"github.com/batizy/chantierpro/internal/database"
	"github.com/batizy/chantierpro/internal/handlers"
	"github.com/batizy/chantierpro/internal/remote"
	"github.com/batizy/chantierpro/internal/storage"
	"github.com/batizy/chantierpro/internal/sync"
	"github.com/batizy/chantierpro/internal/websocket"
)

const monitorInterval = 30 * time.Second

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize the local store (SQLite, embedded or external PostgreSQL)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	// Note: db.Close() is called manually in the shutdown handler below

	// 3. Auto-migrate schema and seed offline demo data
	log.Println("🚀 Synchronizing local store schema...")
	if err := db.Migrate(); err != nil {
		log.Printf("⚠️ Migration warning: %v", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}
	if err := db.SeedDemoData(); err != nil {
		log.Printf("⚠️ Seed warning: %v", err)
	}

	// 4. Wire the sync layer
	configured := cfg.Remote.IsConfigured()
	if configured {
		log.Printf("🔄 Remote sync enabled: %s", cfg.Remote.URL)
	} else {
		log.Println("📴 Remote sync not configured, running in local-only mode")
	}

	remoteClient := remote.NewClient(cfg.Remote)
	photoStore := storage.NewPhotoStore(cfg.Remote)
	monitor := sync.NewMonitor(remoteClient, configured, monitorInterval)
	outbox := sync.NewOutbox(db)

	manager := sync.NewManager(
		outbox,
		sync.NewUsers(db, remoteClient, configured),
		sync.NewWorkTypes(db, remoteClient, configured),
		sync.NewChantiers(db, remoteClient, configured),
		sync.NewRapports(db, remoteClient, photoStore, outbox, configured, monitor.Online),
		sync.NewAlerts(db, remoteClient, outbox, configured, monitor.Online),
		sync.NewNotifications(db, remoteClient, configured),
		monitor,
		configured,
	)

	// 5. Status push channel
	hub := websocket.NewHub()
	go hub.Run()
	manager.SetOnStatusChange(func(status sync.Status) {
		hub.Broadcast(map[string]interface{}{
			"type":   "SYNC_STATUS",
			"status": status,
		})
	})

	monitor.Start()

	// 6. HTTP router
	router := handlers.NewRouter(cfg, manager, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 ChantierPro server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	monitor.Stop()

	log.Println("🛑 Closing local store...")
	if err := db.Close(); err != nil {
		log.Printf("Local store close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
