// Package memory provides in-memory repository implementations used in
// development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recipeKey struct {
	ownerID    string
	externalID int64
}

type storedRecipe struct {
	seq    uint64
	recipe *recipe.SavedRecipe
}

// RecipeRepository implements outbound.RecipeRepository in memory
type RecipeRepository struct {
	byID  map[string]storedRecipe
	byKey map[recipeKey]string
	seq   uint64
	now   func() time.Time
	mutex sync.RWMutex
}

// NewRecipeRepository creates a new in-memory recipe repository
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{
		byID:  make(map[string]storedRecipe),
		byKey: make(map[recipeKey]string),
		now:   time.Now,
	}
}

var _ outbound.RecipeRepository = (*RecipeRepository)(nil)

// Save inserts a recipe unless the owner already saved the same external id
func (r *RecipeRepository) Save(ctx context.Context, rec *recipe.SavedRecipe) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := recipeKey{ownerID: rec.OwnerID, externalID: rec.ExternalID}
	if _, exists := r.byKey[key]; exists {
		return recipe.ErrRecipeAlreadySaved
	}

	rec.Stamp(primitive.NewObjectID().Hex(), r.now().UTC())
	r.seq++
	r.byID[rec.ID] = storedRecipe{seq: r.seq, recipe: rec.Clone()}
	r.byKey[key] = rec.ID
	return nil
}

// ListByOwner returns the owner's recipes, newest first
func (r *RecipeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*recipe.SavedRecipe, error) {
	return r.collect(ownerID, ""), nil
}

// Search returns the owner's recipes matching query, newest first
func (r *RecipeRepository) Search(ctx context.Context, ownerID, query string) ([]*recipe.SavedRecipe, error) {
	return r.collect(ownerID, query), nil
}

// FindByID returns the recipe only when ownerID owns it
func (r *RecipeRepository) FindByID(ctx context.Context, ownerID, id string) (*recipe.SavedRecipe, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stored, exists := r.byID[id]
	if !exists || stored.recipe.OwnerID != ownerID {
		return nil, recipe.ErrRecipeNotFound
	}
	return stored.recipe.Clone(), nil
}

// Delete removes the recipe only when ownerID owns it
func (r *RecipeRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, exists := r.byID[id]
	if !exists || stored.recipe.OwnerID != ownerID {
		return recipe.ErrRecipeNotFound
	}
	r.remove(stored.recipe)
	return nil
}

// DeleteByOwner removes all of the owner's recipes
func (r *RecipeRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var deleted int64
	for _, stored := range r.byID {
		if stored.recipe.OwnerID == ownerID {
			r.remove(stored.recipe)
			deleted++
		}
	}
	return deleted, nil
}

func (r *RecipeRepository) remove(rec *recipe.SavedRecipe) {
	delete(r.byID, rec.ID)
	delete(r.byKey, recipeKey{ownerID: rec.OwnerID, externalID: rec.ExternalID})
}

func (r *RecipeRepository) collect(ownerID, query string) []*recipe.SavedRecipe {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	matched := make([]storedRecipe, 0)
	for _, stored := range r.byID {
		if stored.recipe.OwnerID == ownerID && stored.recipe.Matches(query) {
			matched = append(matched, stored)
		}
	}

	// Newest first. Insertion order breaks ties between equal timestamps.
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.recipe.CreatedAt.Equal(b.recipe.CreatedAt) {
			return a.recipe.CreatedAt.After(b.recipe.CreatedAt)
		}
		return a.seq > b.seq
	})

	result := make([]*recipe.SavedRecipe, 0, len(matched))
	for _, stored := range matched {
		result = append(result, stored.recipe.Clone())
	}
	return result
}
