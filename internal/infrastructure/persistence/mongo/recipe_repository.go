package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newestFirst orders by creation time, then by id so that recipes saved
// within the same millisecond keep insertion order
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// RecipeRepository implements outbound.RecipeRepository on a collection
type RecipeRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(cm *ConnectionManager) *RecipeRepository {
	return &RecipeRepository{coll: cm.Recipes(), now: time.Now}
}

var _ outbound.RecipeRepository = (*RecipeRepository)(nil)

// Save inserts the recipe. The unique (userId, spoonacularId) index turns a
// second save of the same recipe into ErrRecipeAlreadySaved.
func (r *RecipeRepository) Save(ctx context.Context, rec *recipe.SavedRecipe) error {
	doc, err := RecipeToDocument(rec)
	if err != nil {
		return err
	}

	// BSON dates carry milliseconds only
	now := r.now().UTC().Truncate(time.Millisecond)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return recipe.ErrRecipeAlreadySaved
		}
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	rec.Stamp(doc.ID.Hex(), now)
	return nil
}

// ListByOwner returns the owner's recipes, newest first
func (r *RecipeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*recipe.SavedRecipe, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []*recipe.SavedRecipe{}, nil
	}
	return r.find(ctx, bson.M{"userId": owner})
}

// Search matches query as a literal, case-insensitive substring of the
// title, the summary or any ingredient name
func (r *RecipeRepository) Search(ctx context.Context, ownerID, query string) ([]*recipe.SavedRecipe, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []*recipe.SavedRecipe{}, nil
	}
	if query == "" {
		return r.find(ctx, bson.M{"userId": owner})
	}

	pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	filter := bson.M{
		"userId": owner,
		"$or": []bson.M{
			{"title": pattern},
			{"summary": pattern},
			{"ingredients.name": pattern},
		},
	}
	return r.find(ctx, filter)
}

// FindByID returns the recipe only when ownerID owns it
func (r *RecipeRepository) FindByID(ctx context.Context, ownerID, id string) (*recipe.SavedRecipe, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return nil, recipe.ErrRecipeNotFound
	}

	var doc RecipeDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, recipe.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to find recipe: %w", err)
	}
	return DocumentToRecipe(&doc), nil
}

// Delete removes the recipe only when ownerID owns it
func (r *RecipeRepository) Delete(ctx context.Context, ownerID, id string) error {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return recipe.ErrRecipeNotFound
	}

	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if result.DeletedCount == 0 {
		return recipe.ErrRecipeNotFound
	}
	return nil
}

// DeleteByOwner removes every recipe the owner saved
func (r *RecipeRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return 0, nil
	}
	result, err := r.coll.DeleteMany(ctx, bson.M{"userId": owner})
	if err != nil {
		return 0, fmt.Errorf("failed to delete recipes: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *RecipeRepository) find(ctx context.Context, filter bson.M) ([]*recipe.SavedRecipe, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []RecipeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}

	result := make([]*recipe.SavedRecipe, 0, len(docs))
	for i := range docs {
		result = append(result, DocumentToRecipe(&docs[i]))
	}
	return result, nil
}

// ownedFilter matches one recipe by id and owner. Malformed ids can never
// match so they report false.
func ownedFilter(ownerID, id string) (bson.M, bool) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": owner}, true
}
