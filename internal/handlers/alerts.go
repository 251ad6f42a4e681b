package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/batizy/chantierpro/internal/middleware"
	"github.com/batizy/chantierpro/internal/models"
)

type createAlertRequest struct {
	ChantierID string `json:"chantierId"`
	AlertType  string `json:"alertType"`
	Message    string `json:"message"`
}

// listAlerts returns all alerts, newest first
func (r *Router) listAlerts(w http.ResponseWriter, req *http.Request) {
	alerts := r.manager.Alerts().PullAll(req.Context())
	if alerts == nil {
		alerts = []models.Alert{}
	}
	respondJSON(w, http.StatusOK, alerts)
}

// createAlert raises a field alert on behalf of the authenticated technician
func (r *Router) createAlert(w http.ResponseWriter, req *http.Request) {
	var body createAlertRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.ChantierID == "" {
		respondError(w, http.StatusBadRequest, "Chantier id required")
		return
	}

	alertType := models.AlertType(body.AlertType)
	switch alertType {
	case models.AlertDelay, models.AlertCancellation, models.AlertMaterials, models.AlertOther:
	default:
		respondError(w, http.StatusBadRequest, "Unknown alert type")
		return
	}

	ctx := req.Context()
	alert := models.Alert{
		ChantierID:   body.ChantierID,
		TechnicianID: middleware.UserIDFromContext(ctx),
		AlertType:    alertType,
		Message:      body.Message,
	}

	id, err := r.manager.Alerts().Create(ctx, alert)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// markAllAlertsRead flips every alert's read flag in one call
func (r *Router) markAllAlertsRead(w http.ResponseWriter, req *http.Request) {
	if err := r.manager.Alerts().MarkAllRead(req.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update alerts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// markAlertRead flips one alert's read flag
func (r *Router) markAlertRead(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	if err := r.manager.Alerts().MarkRead(req.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update alert")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}
