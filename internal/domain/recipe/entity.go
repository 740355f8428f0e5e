// Package recipe defines the saved recipe aggregate. A saved recipe is a
// user's copy of a recipe returned by the upstream suggestion service and is
// keyed by the pair (owner, external recipe id).
package recipe

import (
	"strings"
	"time"
)

// SavedRecipe is a recipe stored in a user's collection
type SavedRecipe struct {
	ID                 string
	OwnerID            string
	ExternalID         int64
	Title              string
	Image              string
	ReadyInMinutes     int
	PreparationMinutes *int
	CookingMinutes     *int
	Nutrition          Nutrition
	Ingredients        []Ingredient
	Summary            string
	Instructions       []Instruction
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Nutrition holds optional per-serving nutrition facts
type Nutrition struct {
	Calories      *float64
	Fat           *float64
	Carbohydrates *float64
	Protein       *float64
}

// Ingredient represents an ingredient line of a saved recipe
type Ingredient struct {
	Name   string
	Amount float64
	Unit   string
}

// Validate validates the ingredient
func (i Ingredient) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrMissingIngredient
	}
	if i.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Instruction is one analyzed cooking step
type Instruction struct {
	Number int
	Step   string
	Length int // estimated minutes, zero when unknown
}

// Validate checks the invariants a recipe must hold before it is stored.
func (r *SavedRecipe) Validate() error {
	if r.OwnerID == "" {
		return ErrMissingOwner
	}
	if r.ExternalID == 0 || strings.TrimSpace(r.Title) == "" {
		return ErrMissingIdentity
	}
	if r.ReadyInMinutes < 0 || negative(r.PreparationMinutes) || negative(r.CookingMinutes) {
		return ErrNegativeDuration
	}
	for _, ing := range r.Ingredients {
		if err := ing.Validate(); err != nil {
			return err
		}
	}
	for _, ins := range r.Instructions {
		if ins.Length < 0 {
			return ErrNegativeDuration
		}
	}
	return nil
}

// Stamp assigns the store identity and timestamps on first insert.
func (r *SavedRecipe) Stamp(id string, now time.Time) {
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Matches reports whether query appears, ignoring case, in the title, the
// summary or any ingredient name. An empty query matches everything.
func (r *SavedRecipe) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Summary), q) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias stored slices.
func (r *SavedRecipe) Clone() *SavedRecipe {
	c := *r
	c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	c.Instructions = append([]Instruction(nil), r.Instructions...)
	c.PreparationMinutes = cloneInt(r.PreparationMinutes)
	c.CookingMinutes = cloneInt(r.CookingMinutes)
	c.Nutrition = Nutrition{
		Calories:      cloneFloat(r.Nutrition.Calories),
		Fat:           cloneFloat(r.Nutrition.Fat),
		Carbohydrates: cloneFloat(r.Nutrition.Carbohydrates),
		Protein:       cloneFloat(r.Nutrition.Protein),
	}
	return &c
}

func negative(v *int) bool {
	return v != nil && *v < 0
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
