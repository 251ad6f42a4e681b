package handlers

import (
	"errors"
	"net/http"

	"github.com/batizy/chantierpro/internal/middleware"
	"github.com/batizy/chantierpro/internal/sync"
)

// syncStatus returns the current sync snapshot
func (r *Router) syncStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.manager.CurrentStatus())
}

// forceSync triggers an immediate full sync (admins) or a scoped sync
// (technicians). A sync already in flight is reported, not queued.
func (r *Router) forceSync(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var err error
	if middleware.RoleFromContext(ctx) == "admin" {
		err = r.manager.SyncAll(ctx)
	} else {
		err = r.manager.SyncForTechnician(ctx, middleware.UserIDFromContext(ctx))
	}

	if errors.Is(err, sync.ErrSyncInProgress) {
		respondError(w, http.StatusConflict, "Sync already in progress")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	respondJSON(w, http.StatusOK, r.manager.CurrentStatus())
}
