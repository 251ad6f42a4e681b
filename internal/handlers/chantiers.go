package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/batizy/chantierpro/internal/middleware"
	"github.com/batizy/chantierpro/internal/models"
	"github.com/batizy/chantierpro/internal/sync"
)

type createChantierRequest struct {
	ClientName    string    `json:"clientName"`
	ClientPhone   string    `json:"clientPhone"`
	ClientEmail   *string   `json:"clientEmail"`
	Address       string    `json:"address"`
	WorkType      string    `json:"workType"`
	StartDatetime time.Time `json:"startDatetime"`
	EndDatetime   time.Time `json:"endDatetime"`
	Notes         *string   `json:"notes"`
	TechnicianIDs []string  `json:"technicianIds"`
}

type updateChantierRequest struct {
	ClientName    *string    `json:"clientName"`
	ClientPhone   *string    `json:"clientPhone"`
	ClientEmail   *string    `json:"clientEmail"`
	Address       *string    `json:"address"`
	WorkType      *string    `json:"workType"`
	StartDatetime *time.Time `json:"startDatetime"`
	EndDatetime   *time.Time `json:"endDatetime"`
	Status        *string    `json:"status"`
	Notes         *string    `json:"notes"`
	TechnicianIDs []string   `json:"technicianIds"`
}

// listChantiers returns chantiers scoped by role: admins see everything,
// technicians see their assignments. Admins may scope to one technician with
// ?technician=<id>.
func (r *Router) listChantiers(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var chantiers []models.Chantier
	if middleware.RoleFromContext(ctx) == "admin" {
		if technicianID := req.URL.Query().Get("technician"); technicianID != "" {
			chantiers = r.manager.Chantiers().PullForTechnician(ctx, technicianID)
		} else {
			chantiers = r.manager.Chantiers().PullAll(ctx)
		}
	} else {
		chantiers = r.manager.Chantiers().PullForTechnician(ctx, middleware.UserIDFromContext(ctx))
	}

	if chantiers == nil {
		chantiers = []models.Chantier{}
	}
	respondJSON(w, http.StatusOK, chantiers)
}

// getChantier returns one chantier from the local store
func (r *Router) getChantier(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	chantier, err := r.manager.Chantiers().Get(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read chantier")
		return
	}
	if chantier == nil {
		respondError(w, http.StatusNotFound, "Chantier not found")
		return
	}
	respondJSON(w, http.StatusOK, chantier)
}

// createChantier creates a chantier and notifies the assigned technicians
func (r *Router) createChantier(w http.ResponseWriter, req *http.Request) {
	var body createChantierRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.ClientName == "" || body.StartDatetime.IsZero() || body.EndDatetime.IsZero() {
		respondError(w, http.StatusBadRequest, "Client name and schedule required")
		return
	}
	if body.EndDatetime.Before(body.StartDatetime) {
		respondError(w, http.StatusBadRequest, "End must be after start")
		return
	}

	ctx := req.Context()
	chantier := models.Chantier{
		ClientName:    body.ClientName,
		ClientPhone:   body.ClientPhone,
		ClientEmail:   body.ClientEmail,
		Address:       body.Address,
		WorkType:      body.WorkType,
		StartDatetime: body.StartDatetime,
		EndDatetime:   body.EndDatetime,
		Status:        sync.DeriveStatus(body.StartDatetime, body.EndDatetime, time.Now()),
		Notes:         body.Notes,
		TechnicianIDs: body.TechnicianIDs,
		CreatedBy:     middleware.UserIDFromContext(ctx),
	}

	id, err := r.manager.Chantiers().Create(ctx, chantier)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create chantier")
		return
	}

	r.notifyTechnicians(ctx, body.TechnicianIDs, models.Notification{
		Title:     "Nouveau chantier",
		Message:   "Nouveau chantier chez " + body.ClientName,
		Type:      models.NotifNewChantier,
		RelatedID: &id,
	})

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// updateChantier applies a sparse update and notifies the current assignees
func (r *Router) updateChantier(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	var body updateChantierRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	upd := sync.ChantierUpdate{
		ClientName:    body.ClientName,
		ClientPhone:   body.ClientPhone,
		ClientEmail:   body.ClientEmail,
		Address:       body.Address,
		WorkType:      body.WorkType,
		StartDatetime: body.StartDatetime,
		EndDatetime:   body.EndDatetime,
		Notes:         body.Notes,
		TechnicianIDs: body.TechnicianIDs,
	}
	if body.Status != nil {
		status := models.ChantierStatus(*body.Status)
		switch status {
		case models.StatusUpcoming, models.StatusInProgress, models.StatusCompleted:
			upd.Status = &status
		default:
			respondError(w, http.StatusBadRequest, "Unknown status")
			return
		}
	}

	ctx := req.Context()
	if err := r.manager.Chantiers().Update(ctx, id, upd); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update chantier")
		return
	}

	if chantier, err := r.manager.Chantiers().Get(id); err == nil && chantier != nil {
		r.notifyTechnicians(ctx, chantier.TechnicianIDs, models.Notification{
			Title:     "Chantier modifié",
			Message:   "Le chantier chez " + chantier.ClientName + " a été modifié",
			Type:      models.NotifModification,
			RelatedID: &id,
		})
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// deleteChantier removes a chantier on both sides
func (r *Router) deleteChantier(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	if err := r.manager.Chantiers().Delete(req.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete chantier")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// notifyTechnicians fans one notification out to each listed technician.
// Failures are already logged by the adapter; delivery is best-effort.
func (r *Router) notifyTechnicians(ctx context.Context, technicianIDs []string, template models.Notification) {
	for _, technicianID := range technicianIDs {
		notif := template
		notif.UserID = technicianID
		_, _ = r.manager.Notifications().Create(ctx, notif)
	}
}
