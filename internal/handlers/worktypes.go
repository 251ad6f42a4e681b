package handlers

import (
	"net/http"

	"github.com/batizy/chantierpro/internal/models"
)

// listWorkTypes returns the work type reference data
func (r *Router) listWorkTypes(w http.ResponseWriter, req *http.Request) {
	types := r.manager.WorkTypes().PullAll(req.Context())
	if types == nil {
		types = []models.WorkType{}
	}
	respondJSON(w, http.StatusOK, types)
}
