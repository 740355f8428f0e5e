package mongo

import (
	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
	"github.com/alchemorsel/fridgechef/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserToDocument converts a domain user to its stored form
func UserToDocument(u *user.User) (*UserDocument, error) {
	doc := &UserDocument{
		Username:  u.Username(),
		Password:  u.PasswordHash(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
	if u.ID() != "" {
		id, err := primitive.ObjectIDFromHex(u.ID())
		if err != nil {
			return nil, user.ErrUserNotFound
		}
		doc.ID = id
	}
	return doc, nil
}

// DocumentToUser rebuilds a domain user
func DocumentToUser(doc *UserDocument) *user.User {
	return user.Rehydrate(doc.ID.Hex(), doc.Username, doc.Password, doc.CreatedAt, doc.UpdatedAt)
}

// RecipeToDocument converts a domain recipe to its stored form. The owner
// id must be a valid ObjectID.
func RecipeToDocument(r *recipe.SavedRecipe) (*RecipeDocument, error) {
	owner, err := primitive.ObjectIDFromHex(r.OwnerID)
	if err != nil {
		return nil, recipe.ErrMissingOwner
	}

	doc := &RecipeDocument{
		UserID:             owner,
		SpoonacularID:      r.ExternalID,
		Title:              r.Title,
		Image:              r.Image,
		ReadyInMinutes:     r.ReadyInMinutes,
		PreparationMinutes: r.PreparationMinutes,
		CookingMinutes:     r.CookingMinutes,
		Nutrition: NutritionDocument{
			Calories:      r.Nutrition.Calories,
			Fat:           r.Nutrition.Fat,
			Carbohydrates: r.Nutrition.Carbohydrates,
			Protein:       r.Nutrition.Protein,
		},
		Ingredients:          make([]IngredientDocument, 0, len(r.Ingredients)),
		Summary:              r.Summary,
		AnalyzedInstructions: make([]InstructionDocument, 0, len(r.Instructions)),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	for _, ing := range r.Ingredients {
		doc.Ingredients = append(doc.Ingredients, IngredientDocument{Name: ing.Name, Amount: ing.Amount, Unit: ing.Unit})
	}
	for _, ins := range r.Instructions {
		doc.AnalyzedInstructions = append(doc.AnalyzedInstructions, InstructionDocument{Number: ins.Number, Step: ins.Step, Length: ins.Length})
	}
	return doc, nil
}

// DocumentToRecipe rebuilds a domain recipe
func DocumentToRecipe(doc *RecipeDocument) *recipe.SavedRecipe {
	r := &recipe.SavedRecipe{
		ID:                 doc.ID.Hex(),
		OwnerID:            doc.UserID.Hex(),
		ExternalID:         doc.SpoonacularID,
		Title:              doc.Title,
		Image:              doc.Image,
		ReadyInMinutes:     doc.ReadyInMinutes,
		PreparationMinutes: doc.PreparationMinutes,
		CookingMinutes:     doc.CookingMinutes,
		Nutrition: recipe.Nutrition{
			Calories:      doc.Nutrition.Calories,
			Fat:           doc.Nutrition.Fat,
			Carbohydrates: doc.Nutrition.Carbohydrates,
			Protein:       doc.Nutrition.Protein,
		},
		Summary:   doc.Summary,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, ing := range doc.Ingredients {
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{Name: ing.Name, Amount: ing.Amount, Unit: ing.Unit})
	}
	for _, ins := range doc.AnalyzedInstructions {
		r.Instructions = append(r.Instructions, recipe.Instruction{Number: ins.Number, Step: ins.Step, Length: ins.Length})
	}
	return r
}
