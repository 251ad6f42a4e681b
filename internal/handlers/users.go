package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/batizy/chantierpro/internal/models"
)

type createUserRequest struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Role     string  `json:"role"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
}

// listUsers returns all users, refreshed from the remote authority when
// reachable
func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	users := r.manager.Users().PullAll(req.Context())
	if users == nil {
		users = []models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

// createUser registers a new user
func (r *Router) createUser(w http.ResponseWriter, req *http.Request) {
	var body createUserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == "" || body.Code == "" {
		respondError(w, http.StatusBadRequest, "Name and access code required")
		return
	}

	role := models.UserRole(body.Role)
	if role != models.RoleAdmin && role != models.RoleTechnician {
		respondError(w, http.StatusBadRequest, "Role must be admin or technicien")
		return
	}

	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}

	user := models.User{
		Name:     body.Name,
		Code:     body.Code,
		Role:     role,
		Email:    body.Email,
		Phone:    body.Phone,
		IsActive: active,
	}

	id, err := r.manager.Users().Create(req.Context(), user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}
