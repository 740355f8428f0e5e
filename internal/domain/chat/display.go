package chat

import "fmt"

// Visible reports whether a step belongs on the rendered timeline. Nothing is
// shown before the turn starts. After completion only the first three steps
// are shown. While running, a step is shown up to the active frontier or
// whenever its own status is not pending.
func (s State) Visible(step Step) bool {
	if !s.Started && !s.Complete {
		return false
	}
	if s.Complete {
		return step != GetRecipeDetails
	}

	inProgress := -1
	lastCompleted := -1
	for i, st := range s.Steps {
		if st.Status == StatusInProgress && inProgress < 0 {
			inProgress = i
		}
		if st.Status == StatusCompleted {
			lastCompleted = i
		}
	}

	frontier := inProgress
	if lastCompleted > frontier {
		frontier = lastCompleted
	}
	return int(step) <= frontier || s.Steps[step].Status != StatusPending
}

// VisibleSteps returns the steps to render, in order
func (s State) VisibleSteps() []Step {
	var out []Step
	for _, step := range Steps {
		if s.Visible(step) {
			out = append(out, step)
		}
	}
	return out
}

var inProgressLabels = [...]string{
	ExtractIngredients: "Analyzing fridge contents...",
	FormatIngredients:  "Formatting ingredients for recipe search...",
	SearchRecipes:      "Searching for recipes...",
	GetRecipeDetails:   "Getting recipe details...",
}

var errorLabels = [...]string{
	ExtractIngredients: "Error extracting ingredients",
	FormatIngredients:  "Error formatting ingredients",
	SearchRecipes:      "Error searching recipes",
	GetRecipeDetails:   "Error getting recipe details",
}

// Label is the one-line text shown next to a step
func (s State) Label(step Step) string {
	st := s.Steps[step]
	switch st.Status {
	case StatusInProgress:
		return firstNonEmpty(st.Message, inProgressLabels[step])
	case StatusError:
		return errorLabels[step]
	case StatusCompleted:
		if label, ok := s.dataLabel(step); ok {
			return label
		}
		return firstNonEmpty(st.Message, "Completed")
	}
	return ""
}

func (s State) dataLabel(step Step) (string, bool) {
	d := s.Data
	switch step {
	case ExtractIngredients:
		if d.ExtractedIngredients != nil {
			return fmt.Sprintf("%d ingredients found", len(d.ExtractedIngredients)), true
		}
	case FormatIngredients:
		if d.FormattedIngredients != nil && d.ExtractedIngredients != nil {
			return fmt.Sprintf("Used %d of %d ingredients",
				len(d.FormattedIngredients), len(d.ExtractedIngredients)), true
		}
	case SearchRecipes:
		if d.RecipeCount != nil {
			return fmt.Sprintf("Found %d recipes", *d.RecipeCount), true
		}
	case GetRecipeDetails:
		if d.DetailsCount != nil {
			return fmt.Sprintf("Retrieved details for %d recipes", *d.DetailsCount), true
		}
	}
	return "", false
}

// StepView is a rendered timeline row
type StepView struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Label   string `json:"label"`
	Message string `json:"message,omitempty"`
}

// TurnView is the render-ready projection of a State
type TurnView struct {
	Started      bool       `json:"started"`
	Complete     bool       `json:"complete"`
	Done         bool       `json:"done"`
	Steps        []StepView `json:"steps"`
	Data         StepData   `json:"data"`
	FinalMessage string     `json:"final_message,omitempty"`
	Recipes      []Recipe   `json:"recipes,omitempty"`
	Error        string     `json:"error,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// View projects the state for rendering. A turn-level error is only surfaced
// when no step ever started; otherwise it shows on the failed step.
func (s State) View() TurnView {
	v := TurnView{
		Started:      s.Started,
		Complete:     s.Complete,
		Done:         s.Done,
		Steps:        []StepView{},
		Data:         s.Data,
		FinalMessage: s.FinalMessage,
		Recipes:      s.Recipes,
		Message:      s.Reply,
	}
	if !s.Started {
		v.Error = s.Error
	}
	for _, step := range s.VisibleSteps() {
		st := s.Steps[step]
		v.Steps = append(v.Steps, StepView{
			Name:    step.String(),
			Status:  st.Status,
			Label:   s.Label(step),
			Message: st.Message,
		})
	}
	return v
}
