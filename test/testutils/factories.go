// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"time"

	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/brianvoe/gofakeit/v6"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Command returns a suggestion-shaped recipe as the save endpoint accepts it
func (f *RecipeFactory) Command() inbound.SaveRecipeCommand {
	prep := f.faker.Number(5, 30)
	cook := f.faker.Number(5, 90)
	calories := float64(f.faker.Number(150, 900))
	protein := f.faker.Float64Range(1, 60)

	cmd := inbound.SaveRecipeCommand{
		ID:                 int64(f.faker.Number(1, 9_999_999)),
		Title:              f.faker.Adjective() + " " + f.faker.Dessert(),
		Image:              f.faker.URL() + "/image.jpg",
		ReadyInMinutes:     prep + cook,
		PreparationMinutes: &prep,
		CookingMinutes:     &cook,
		Nutrition: inbound.NutritionDTO{
			Calories: &calories,
			Protein:  &protein,
		},
		Summary: f.faker.Sentence(12),
	}

	for i := 0; i < f.faker.Number(2, 6); i++ {
		cmd.Ingredients = append(cmd.Ingredients, inbound.IngredientDTO{
			Name:   f.faker.Fruit(),
			Amount: float64(f.faker.Number(1, 500)),
			Unit:   f.faker.RandomString([]string{"g", "ml", "cup", "tbsp", ""}),
		})
	}
	for i := 1; i <= f.faker.Number(1, 5); i++ {
		cmd.AnalyzedInstructions = append(cmd.AnalyzedInstructions, inbound.InstructionStepDTO{
			Number: i,
			Step:   f.faker.Sentence(8),
			Length: f.faker.Number(0, 20),
		})
	}
	return cmd
}

// Recipe returns a valid domain recipe owned by ownerID
func (f *RecipeFactory) Recipe(ownerID string) *recipe.SavedRecipe {
	return f.Command().ToEntity(ownerID)
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	cmd inbound.SaveRecipeCommand
}

// NewRecipeBuilder creates a new recipe builder with default values
func NewRecipeBuilder() *RecipeBuilder {
	return &RecipeBuilder{
		cmd: NewRecipeFactory(time.Now().UnixNano()).Command(),
	}
}

// WithExternalID sets the upstream recipe id
func (rb *RecipeBuilder) WithExternalID(id int64) *RecipeBuilder {
	rb.cmd.ID = id
	return rb
}

// WithTitle sets the recipe title
func (rb *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	rb.cmd.Title = title
	return rb
}

// WithSummary sets the recipe summary
func (rb *RecipeBuilder) WithSummary(summary string) *RecipeBuilder {
	rb.cmd.Summary = summary
	return rb
}

// WithIngredients replaces the ingredient list with the given names
func (rb *RecipeBuilder) WithIngredients(names ...string) *RecipeBuilder {
	rb.cmd.Ingredients = nil
	for _, name := range names {
		rb.cmd.Ingredients = append(rb.cmd.Ingredients, inbound.IngredientDTO{Name: name, Amount: 1})
	}
	return rb
}

// Command returns the save command
func (rb *RecipeBuilder) Command() inbound.SaveRecipeCommand {
	return rb.cmd
}

// Build returns the domain recipe owned by ownerID
func (rb *RecipeBuilder) Build(ownerID string) *recipe.SavedRecipe {
	return rb.cmd.ToEntity(ownerID)
}

// UserFactory provides credentials for test accounts
type UserFactory struct {
	faker *gofakeit.Faker
}

// NewUserFactory creates a new user factory with seeded faker
func NewUserFactory(seed int64) *UserFactory {
	return &UserFactory{
		faker: gofakeit.New(seed),
	}
}

// Credentials returns a fresh username and a password long enough to pass validation
func (f *UserFactory) Credentials() inbound.CredentialsCommand {
	return inbound.CredentialsCommand{
		Username: f.faker.Username() + f.faker.DigitN(4),
		Password: f.faker.Password(true, true, true, false, false, 12),
	}
}
