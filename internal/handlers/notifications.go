package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/batizy/chantierpro/internal/middleware"
	"github.com/batizy/chantierpro/internal/models"
)

// listNotifications returns the authenticated user's notifications
func (r *Router) listNotifications(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	notifications := r.manager.Notifications().PullForUser(ctx, middleware.UserIDFromContext(ctx))
	if notifications == nil {
		notifications = []models.Notification{}
	}
	respondJSON(w, http.StatusOK, notifications)
}

// markNotificationRead flips one notification's read flag
func (r *Router) markNotificationRead(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	if err := r.manager.Notifications().MarkRead(req.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// markAllNotificationsRead flips every unread notification of the
// authenticated user
func (r *Router) markAllNotificationsRead(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if err := r.manager.Notifications().MarkAllRead(ctx, middleware.UserIDFromContext(ctx)); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
