package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/batizy/chantierpro/internal/models"
	"github.com/batizy/chantierpro/internal/sync"
	"github.com/batizy/chantierpro/internal/utils"
)

type loginRequest struct {
	Code string `json:"code"`
}

// login resolves an access code to a session token. Authentication works
// offline: when the remote authority is unreachable the local user table
// answers.
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Code == "" {
		respondError(w, http.StatusBadRequest, "Access code required")
		return
	}

	user, err := r.manager.Users().Authenticate(req.Context(), body.Code)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Invalid access code")
		return
	}

	token, err := utils.GenerateToken(user, r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	// Refresh this user's data in the background; a sync already running
	// covers the same ground.
	go r.syncAfterLogin(*user)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (r *Router) syncAfterLogin(user models.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	if user.Role == models.RoleAdmin {
		err = r.manager.SyncAll(ctx)
	} else {
		err = r.manager.SyncForTechnician(ctx, user.ID)
	}
	if err != nil && !errors.Is(err, sync.ErrSyncInProgress) {
		log.Printf("⚠️ Login sync for %s failed: %v", user.Name, err)
	}
}
