// Package mongo provides MongoDB document definitions and repositories
package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserDocument is the stored form of a user
type UserDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// RecipeDocument is the stored form of a saved recipe
type RecipeDocument struct {
	ID                   primitive.ObjectID    `bson:"_id,omitempty"`
	UserID               primitive.ObjectID    `bson:"userId"`
	SpoonacularID        int64                 `bson:"spoonacularId"`
	Title                string                `bson:"title"`
	Image                string                `bson:"image"`
	ReadyInMinutes       int                   `bson:"readyInMinutes"`
	PreparationMinutes   *int                  `bson:"preparationMinutes,omitempty"`
	CookingMinutes       *int                  `bson:"cookingMinutes,omitempty"`
	Nutrition            NutritionDocument     `bson:"nutrition"`
	Ingredients          []IngredientDocument  `bson:"ingredients"`
	Summary              string                `bson:"summary"`
	AnalyzedInstructions []InstructionDocument `bson:"analyzedInstructions"`
	CreatedAt            time.Time             `bson:"createdAt"`
	UpdatedAt            time.Time             `bson:"updatedAt"`
}

// NutritionDocument is embedded in RecipeDocument
type NutritionDocument struct {
	Calories      *float64 `bson:"calories,omitempty"`
	Fat           *float64 `bson:"fat,omitempty"`
	Carbohydrates *float64 `bson:"carbs,omitempty"`
	Protein       *float64 `bson:"protein,omitempty"`
}

// IngredientDocument is embedded in RecipeDocument
type IngredientDocument struct {
	Name   string  `bson:"name"`
	Amount float64 `bson:"amount"`
	Unit   string  `bson:"unit"`
}

// InstructionDocument is embedded in RecipeDocument
type InstructionDocument struct {
	Number int    `bson:"number"`
	Step   string `bson:"step"`
	Length int    `bson:"length"`
}

// SessionDocument tracks an issued or revoked session token
type SessionDocument struct {
	JTI       string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Revoked   bool      `bson:"revoked"`
	ExpiresAt time.Time `bson:"expiresAt"`
}
