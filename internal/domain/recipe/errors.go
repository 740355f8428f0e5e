package recipe

import "errors"

// Domain errors for saved recipe operations

var (
	// Entity validation errors
	ErrMissingOwner      = errors.New("recipe owner is required")
	ErrMissingIdentity   = errors.New("recipe ID and title are required")
	ErrNegativeAmount    = errors.New("ingredient amount cannot be negative")
	ErrNegativeDuration  = errors.New("recipe durations cannot be negative")
	ErrMissingIngredient = errors.New("ingredient name is required")

	// Persistence outcomes
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrRecipeAlreadySaved = errors.New("recipe already saved")
)
