// Package recipe provides the application layer for saved recipes
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"go.uber.org/zap"
)

// RecipeService implements the saved recipe use cases
type RecipeService struct {
	recipeRepo outbound.RecipeRepository
	metrics    outbound.MetricsRecorder
	logger     *zap.Logger
}

// NewRecipeService creates a new recipe service. metrics may be nil.
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) inbound.RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		metrics:    metrics,
		logger:     logger.Named("recipe-service"),
	}
}

// SaveRecipe stores a suggested recipe in the owner's collection
func (s *RecipeService) SaveRecipe(ctx context.Context, ownerID string, cmd inbound.SaveRecipeCommand) (*inbound.SavedRecipeDTO, error) {
	s.logger.Info("Saving recipe",
		zap.String("owner_id", ownerID),
		zap.Int64("external_id", cmd.ID),
	)

	entity := cmd.ToEntity(ownerID)
	if err := entity.Validate(); err != nil {
		return nil, s.validationError(err)
	}

	if err := s.recipeRepo.Save(ctx, entity); err != nil {
		if stderrors.Is(err, recipe.ErrRecipeAlreadySaved) {
			return nil, errors.NewRecipeAlreadySavedError(cmd.ID)
		}
		return nil, errors.NewDatabaseError("save recipe", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRecipeSaved()
	}

	dto := inbound.NewSavedRecipeDTO(entity)
	s.logger.Info("Recipe saved successfully",
		zap.String("recipe_id", dto.ID),
		zap.String("title", dto.Title),
	)
	return &dto, nil
}

// DeleteRecipe removes one of the owner's recipes
func (s *RecipeService) DeleteRecipe(ctx context.Context, ownerID, recipeID string) error {
	if err := s.recipeRepo.Delete(ctx, ownerID, recipeID); err != nil {
		if stderrors.Is(err, recipe.ErrRecipeNotFound) {
			return errors.NewRecipeNotFoundError(recipeID)
		}
		return errors.NewDatabaseError("delete recipe", err)
	}

	s.logger.Info("Recipe deleted successfully",
		zap.String("recipe_id", recipeID),
		zap.String("owner_id", ownerID),
	)
	return nil
}

// ListRecipes returns the owner's collection, newest first
func (s *RecipeService) ListRecipes(ctx context.Context, ownerID string) ([]inbound.SavedRecipeDTO, error) {
	recipes, err := s.recipeRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes", err)
	}
	return toDTOs(recipes), nil
}

// SearchRecipes filters the owner's collection by a free text query.
// A blank query lists everything.
func (s *RecipeService) SearchRecipes(ctx context.Context, ownerID, query string) ([]inbound.SavedRecipeDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListRecipes(ctx, ownerID)
	}

	recipes, err := s.recipeRepo.Search(ctx, ownerID, query)
	if err != nil {
		return nil, errors.NewDatabaseError("search recipes", err)
	}

	s.logger.Debug("Recipe search",
		zap.String("owner_id", ownerID),
		zap.String("query", query),
		zap.Int("results", len(recipes)),
	)
	return toDTOs(recipes), nil
}

// GetRecipe returns one of the owner's recipes
func (s *RecipeService) GetRecipe(ctx context.Context, ownerID, recipeID string) (*inbound.SavedRecipeDTO, error) {
	entity, err := s.recipeRepo.FindByID(ctx, ownerID, recipeID)
	if err != nil {
		if stderrors.Is(err, recipe.ErrRecipeNotFound) {
			return nil, errors.NewRecipeNotFoundError(recipeID)
		}
		return nil, errors.NewDatabaseError("find recipe", err)
	}

	dto := inbound.NewSavedRecipeDTO(entity)
	return &dto, nil
}

func (s *RecipeService) validationError(err error) *errors.AppError {
	if stderrors.Is(err, recipe.ErrMissingIdentity) {
		return errors.NewValidationError("Recipe ID and title are required").WithCause(err)
	}
	return errors.NewValidationError(err.Error()).WithCause(err)
}

func toDTOs(recipes []*recipe.SavedRecipe) []inbound.SavedRecipeDTO {
	dtos := make([]inbound.SavedRecipeDTO, 0, len(recipes))
	for _, r := range recipes {
		dtos = append(dtos, inbound.NewSavedRecipeDTO(r))
	}
	return dtos
}
