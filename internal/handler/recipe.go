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

// RecipeHandler handles the recipe CRUD and search endpoints.
type RecipeHandler struct {
	service *service.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{service: svc}
}

// HandleSearch handles GET /api/recipes. Search is public; no auth needed.
func (h *RecipeHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := model.RecipeSearchParams{
		Ingredients: q.Get("ingredients"),
		MealType:    q.Get("meal_type"),
	}
	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.Limit, _ = strconv.Atoi(q.Get("limit"))

	result, err := h.service.Search(r.Context(), params)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		slog.Error("recipe search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to search recipes"))
		return
	}

	writeJSON(w, http.StatusOK, dataResponse(result))
}

// HandleGet handles GET /api/recipes/{id}.
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrRecipeNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Recipe not found"))
			return
		}
		slog.Error("recipe lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to load recipe"))
		return
	}

	writeJSON(w, http.StatusOK, dataResponse(recipe))
}

// HandleCreate handles POST /api/recipes.
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Authentication required"))
		return
	}

	var in model.RecipeInput
	if !decodeBody(w, r, &in) {
		return
	}

	recipe, err := h.service.Create(r.Context(), claims.UserID, in)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		slog.Error("recipe create failed", "error", err, "user_id", claims.UserID)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to create recipe"))
		return
	}

	writeJSON(w, http.StatusCreated, dataResponse(recipe))
}

// HandleUpdate handles PUT /api/recipes/{id}.
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Authentication required"))
		return
	}

	var in model.RecipeInput
	if !decodeBody(w, r, &in) {
		return
	}

	recipe, err := h.service.Update(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeMutationError(w, err, claims.UserID)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse(recipe))
}

// HandleDelete handles DELETE /api/recipes/{id}.
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("Authentication required"))
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, claims.Role, chi.URLParam(r, "id")); err != nil {
		h.writeMutationError(w, err, claims.UserID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) writeMutationError(w http.ResponseWriter, err error, userID int64) {
	if writeValidationError(w, err) {
		return
	}
	switch {
	case errors.Is(err, repository.ErrRecipeNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("Recipe not found"))
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse("You can only modify your own recipes"))
	default:
		slog.Error("recipe mutation failed", "error", err, "user_id", userID)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Failed to save recipe"))
	}
}
