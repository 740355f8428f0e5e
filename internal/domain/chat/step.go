// Package chat models one assistant turn of the recipe-suggestion chat: the
// stream of progress events the upstream agent emits and the per-step state
// they fold into.
package chat

// Step identifies one of the fixed, ordered processing stages
type Step int

const (
	ExtractIngredients Step = iota
	FormatIngredients
	SearchRecipes
	GetRecipeDetails
)

// Steps lists every step in processing order
var Steps = [...]Step{ExtractIngredients, FormatIngredients, SearchRecipes, GetRecipeDetails}

var stepNames = [...]string{
	ExtractIngredients: "Extract Ingredients",
	FormatIngredients:  "Format Ingredients",
	SearchRecipes:      "Search Recipes",
	GetRecipeDetails:   "Get Recipe Details",
}

// String returns the wire name of the step
func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "Unknown"
	}
	return stepNames[s]
}

// ParseStep resolves a wire name to a Step
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return 0, false
}

// Status is the progress of a single step
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)
