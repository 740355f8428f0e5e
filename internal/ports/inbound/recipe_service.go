// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
)

// RecipeService defines the use cases for a user's saved recipe collection.
// This is the primary port that HTTP handlers use.
type RecipeService interface {
	// Commands
	SaveRecipe(ctx context.Context, ownerID string, cmd SaveRecipeCommand) (*SavedRecipeDTO, error)
	DeleteRecipe(ctx context.Context, ownerID, recipeID string) error

	// Queries
	ListRecipes(ctx context.Context, ownerID string) ([]SavedRecipeDTO, error)
	SearchRecipes(ctx context.Context, ownerID, query string) ([]SavedRecipeDTO, error)
	GetRecipe(ctx context.Context, ownerID, recipeID string) (*SavedRecipeDTO, error)
}

// SaveRecipeCommand is a recipe as returned by the suggestion service.
// ID is the upstream id and becomes the saved recipe's external id.
type SaveRecipeCommand struct {
	ID                   int64                `json:"id" validate:"required"`
	Title                string               `json:"title" validate:"required"`
	Image                string               `json:"image"`
	ReadyInMinutes       int                  `json:"readyInMinutes"`
	PreparationMinutes   *int                 `json:"preparationMinutes,omitempty"`
	CookingMinutes       *int                 `json:"cookingMinutes,omitempty"`
	Nutrition            NutritionDTO         `json:"nutrition"`
	Ingredients          []IngredientDTO      `json:"ingredients"`
	Summary              string               `json:"summary"`
	AnalyzedInstructions []InstructionStepDTO `json:"analyzedInstructions"`
}

// SavedRecipeDTO is the data transfer object for a stored recipe
type SavedRecipeDTO struct {
	ID                   string               `json:"_id"`
	ExternalID           int64                `json:"spoonacularId"`
	Title                string               `json:"title"`
	Image                string               `json:"image"`
	ReadyInMinutes       int                  `json:"readyInMinutes"`
	PreparationMinutes   *int                 `json:"preparationMinutes,omitempty"`
	CookingMinutes       *int                 `json:"cookingMinutes,omitempty"`
	Nutrition            NutritionDTO         `json:"nutrition"`
	Ingredients          []IngredientDTO      `json:"ingredients"`
	Summary              string               `json:"summary"`
	AnalyzedInstructions []InstructionStepDTO `json:"analyzedInstructions"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

// NutritionDTO for nutrition information
type NutritionDTO struct {
	Calories      *float64 `json:"calories,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
}

// IngredientDTO for ingredient data
type IngredientDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// InstructionStepDTO for instruction data
type InstructionStepDTO struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
	Length int    `json:"length"`
}

// ToEntity builds the domain recipe for ownerID
func (c SaveRecipeCommand) ToEntity(ownerID string) *recipe.SavedRecipe {
	r := &recipe.SavedRecipe{
		OwnerID:            ownerID,
		ExternalID:         c.ID,
		Title:              c.Title,
		Image:              c.Image,
		ReadyInMinutes:     c.ReadyInMinutes,
		PreparationMinutes: c.PreparationMinutes,
		CookingMinutes:     c.CookingMinutes,
		Nutrition: recipe.Nutrition{
			Calories:      c.Nutrition.Calories,
			Fat:           c.Nutrition.Fat,
			Carbohydrates: c.Nutrition.Carbohydrates,
			Protein:       c.Nutrition.Protein,
		},
		Summary: c.Summary,
	}
	for _, ing := range c.Ingredients {
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{Name: ing.Name, Amount: ing.Amount, Unit: ing.Unit})
	}
	for _, ins := range c.AnalyzedInstructions {
		r.Instructions = append(r.Instructions, recipe.Instruction{Number: ins.Number, Step: ins.Step, Length: ins.Length})
	}
	return r
}

// NewSavedRecipeDTO converts a domain recipe to its transfer form
func NewSavedRecipeDTO(r *recipe.SavedRecipe) SavedRecipeDTO {
	dto := SavedRecipeDTO{
		ID:                 r.ID,
		ExternalID:         r.ExternalID,
		Title:              r.Title,
		Image:              r.Image,
		ReadyInMinutes:     r.ReadyInMinutes,
		PreparationMinutes: r.PreparationMinutes,
		CookingMinutes:     r.CookingMinutes,
		Nutrition: NutritionDTO{
			Calories:      r.Nutrition.Calories,
			Fat:           r.Nutrition.Fat,
			Carbohydrates: r.Nutrition.Carbohydrates,
			Protein:       r.Nutrition.Protein,
		},
		Ingredients:          make([]IngredientDTO, 0, len(r.Ingredients)),
		Summary:              r.Summary,
		AnalyzedInstructions: make([]InstructionStepDTO, 0, len(r.Instructions)),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	for _, ing := range r.Ingredients {
		dto.Ingredients = append(dto.Ingredients, IngredientDTO{Name: ing.Name, Amount: ing.Amount, Unit: ing.Unit})
	}
	for _, ins := range r.Instructions {
		dto.AnalyzedInstructions = append(dto.AnalyzedInstructions, InstructionStepDTO{Number: ins.Number, Step: ins.Step, Length: ins.Length})
	}
	return dto
}
