package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/batizy/chantierpro/internal/config"
	"github.com/batizy/chantierpro/internal/middleware"
	"github.com/batizy/chantierpro/internal/sync"
	"github.com/batizy/chantierpro/internal/websocket"
	"github.com/batizy/chantierpro/web"
)

// Router wraps the mux router with the sync layer it serves
type Router struct {
	*mux.Router
	cfg     *config.Config
	manager *sync.Manager
	hub     *websocket.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, manager *sync.Manager, hub *websocket.Hub) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		cfg:     cfg,
		manager: manager,
		hub:     hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	api.HandleFunc("/chantiers", r.listChantiers).Methods("GET")
	api.HandleFunc("/chantiers/{id}", r.getChantier).Methods("GET")
	api.HandleFunc("/chantiers/{id}/rapports", r.listChantierRapports).Methods("GET")

	api.HandleFunc("/rapports", r.listRapports).Methods("GET")
	api.HandleFunc("/rapports", r.submitRapport).Methods("POST")

	api.HandleFunc("/alerts", r.listAlerts).Methods("GET")
	api.HandleFunc("/alerts", r.createAlert).Methods("POST")
	api.HandleFunc("/alerts/read-all", r.markAllAlertsRead).Methods("PUT")
	api.HandleFunc("/alerts/{id}/read", r.markAlertRead).Methods("PUT")

	api.HandleFunc("/notifications", r.listNotifications).Methods("GET")
	api.HandleFunc("/notifications/read-all", r.markAllNotificationsRead).Methods("PUT")
	api.HandleFunc("/notifications/{id}/read", r.markNotificationRead).Methods("PUT")

	api.HandleFunc("/worktypes", r.listWorkTypes).Methods("GET")

	api.HandleFunc("/sync/status", r.syncStatus).Methods("GET")
	api.HandleFunc("/sync/force", r.forceSync).Methods("POST")

	// Admin-only routes
	admin := r.PathPrefix("/api").Subrouter()
	admin.Use(middleware.Auth(cfg.JWTSecret), middleware.RequireAdmin)

	admin.HandleFunc("/users", r.listUsers).Methods("GET")
	admin.HandleFunc("/users", r.createUser).Methods("POST")
	admin.HandleFunc("/chantiers", r.createChantier).Methods("POST")
	admin.HandleFunc("/chantiers/{id}", r.updateChantier).Methods("PUT")
	admin.HandleFunc("/chantiers/{id}", r.deleteChantier).Methods("DELETE")

	// Sync status push channel
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(hub, w, req)
	})

	// Installed-app shell
	if staticFS, err := web.GetFileSystem(); err == nil {
		r.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
	}

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"server": "local",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
