package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/batizy/chantierpro/internal/middleware"
	"github.com/batizy/chantierpro/internal/models"
)

type submitRapportRequest struct {
	ChantierID           string                `json:"chantierId"`
	StartTime            time.Time             `json:"startTime"`
	EndTime              *time.Time            `json:"endTime"`
	QuantitiesUsed       []models.QuantityUsed `json:"quantitiesUsed"`
	HasProblems          bool                  `json:"hasProblems"`
	ProblemsDescription  *string               `json:"problemsDescription"`
	HasExtraWork         bool                  `json:"hasExtraWork"`
	ExtraWorkDescription *string               `json:"extraWorkDescription"`
	ClientSignature      *string               `json:"clientSignature"`
	Photos               []string              `json:"photos"` // raw base64 payloads
}

// listRapports returns all rapports for admins, own rapports for technicians
func (r *Router) listRapports(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	rapports := r.manager.Rapports().PullAll(ctx)
	if middleware.RoleFromContext(ctx) != "admin" {
		userID := middleware.UserIDFromContext(ctx)
		own := make([]models.Rapport, 0, len(rapports))
		for _, rapport := range rapports {
			if rapport.TechnicianID == userID {
				own = append(own, rapport)
			}
		}
		rapports = own
	}

	if rapports == nil {
		rapports = []models.Rapport{}
	}
	respondJSON(w, http.StatusOK, rapports)
}

// listChantierRapports returns the rapports of one chantier
func (r *Router) listChantierRapports(w http.ResponseWriter, req *http.Request) {
	chantierID := mux.Vars(req)["id"]

	rapports := r.manager.Rapports().PullForChantier(req.Context(), chantierID)
	if rapports == nil {
		rapports = []models.Rapport{}
	}
	respondJSON(w, http.StatusOK, rapports)
}

// submitRapport runs the end-of-job submission pipeline. The response is
// always a success as long as the rapport reaches the local store; remote
// delivery happens now or via the outbox.
func (r *Router) submitRapport(w http.ResponseWriter, req *http.Request) {
	var body submitRapportRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.ChantierID == "" {
		respondError(w, http.StatusBadRequest, "Chantier id required")
		return
	}

	ctx := req.Context()
	rapport := models.Rapport{
		ChantierID:           body.ChantierID,
		TechnicianID:         middleware.UserIDFromContext(ctx),
		StartTime:            body.StartTime,
		EndTime:              body.EndTime,
		QuantitiesUsed:       body.QuantitiesUsed,
		HasProblems:          body.HasProblems,
		ProblemsDescription:  body.ProblemsDescription,
		HasExtraWork:         body.HasExtraWork,
		ExtraWorkDescription: body.ExtraWorkDescription,
		ClientSignature:      body.ClientSignature,
	}

	id, err := r.manager.Rapports().Submit(ctx, rapport, body.Photos)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save rapport")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}
