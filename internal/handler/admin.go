package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/platebook/platebook-go/internal/middleware"
	"github.com/platebook/platebook-go/internal/model"
	"github.com/platebook/platebook-go/internal/repository"
	"github.com/platebook/platebook-go/internal/service"
)

// AdminHandler handles the admin-only user management endpoints. The
// router guards these routes with RequireRole(model.RoleAdmin).
type AdminHandler struct {
	service *service.AuthService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.AuthService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// HandleListUsers handles GET /api/admin/users.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to list users"))
		return
	}

	resp := make([]model.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, model.PublicUser(&users[i]))
	}

	writeJSON(w, http.StatusOK, dataResponse(map[string]any{"users": resp}))
}

// HandleDeleteUser handles DELETE /api/admin/users/{id}.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Authentication required"))
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("Invalid user id"))
		return
	}

	if err := h.service.DeleteUser(r.Context(), claims.UserID, targetID); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			writeJSON(w, http.StatusBadRequest, errorResponse("You cannot delete your own account"))
		case errors.Is(err, repository.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("User not found"))
		default:
			slog.Error("user delete failed", "error", err, "target_id", targetID)
			writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to delete user"))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
