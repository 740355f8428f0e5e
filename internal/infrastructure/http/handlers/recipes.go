package handlers

import (
	"net/http"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RecipeHandlers serves the signed-in user's saved recipe collection
type RecipeHandlers struct {
	responder
	recipeService inbound.RecipeService
}

// NewRecipeHandlers creates a new recipe handlers instance
func NewRecipeHandlers(recipeService inbound.RecipeService, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		responder:     newResponder(logger.Named("recipe-handlers")),
		recipeService: recipeService,
	}
}

// Routes mounts the collection under an authenticated router
func (h *RecipeHandlers) Routes(r chi.Router) {
	r.Get("/", h.ListRecipes)
	r.Post("/", h.SaveRecipe)
	r.Get("/{id}", h.GetRecipe)
	r.Delete("/{id}", h.DeleteRecipe)
}

// ListRecipes handles GET /api/v1/recipes. A search parameter narrows the
// list to matching recipes.
func (h *RecipeHandlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var (
		recipes []inbound.SavedRecipeDTO
		err     error
	)
	if search := r.URL.Query().Get("search"); search != "" {
		recipes, err = h.recipeService.SearchRecipes(r.Context(), principal.ID, search)
	} else {
		recipes, err = h.recipeService.ListRecipes(r.Context(), principal.ID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recipes == nil {
		recipes = []inbound.SavedRecipeDTO{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"recipes": recipes})
}

// SaveRecipe handles POST /api/v1/recipes
func (h *RecipeHandlers) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var cmd inbound.SaveRecipeCommand
	if appErr := h.decode(w, r, &cmd, maxJSONBody); appErr != nil {
		h.writeError(w, r, withMessage(appErr, "Recipe ID and title are required"))
		return
	}

	saved, err := h.recipeService.SaveRecipe(r.Context(), principal.ID, cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Recipe saved successfully",
		"recipe":  saved,
	})
}

// GetRecipe handles GET /api/v1/recipes/{id}
func (h *RecipeHandlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	found, err := h.recipeService.GetRecipe(r.Context(), principal.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"recipe": found})
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}
func (h *RecipeHandlers) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, r, errors.NewUnauthorizedError("Unauthorized"))
		return
	}

	if err := h.recipeService.DeleteRecipe(r.Context(), principal.ID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted successfully"})
}
