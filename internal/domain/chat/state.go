package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownStep is returned for step events naming a step outside the
	// fixed set. The state is left unchanged.
	ErrUnknownStep = errors.New("unknown step name")
	// ErrMissingStep is returned for step events without a step object.
	ErrMissingStep = errors.New("step event without step")
)

// defaultErrorMessage is shown when an error event carries no text
const defaultErrorMessage = "An error occurred"

// StepState is the status and message of one step
type StepState struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// StepData accumulates the step-specific results of a turn
type StepData struct {
	ExtractedIngredients []string        `json:"extracted_ingredients,omitempty"`
	FormattedIngredients []string        `json:"formatted_ingredients,omitempty"`
	RecipeCount          *int            `json:"recipe_count,omitempty"`
	DetailsCount         *int            `json:"details_count,omitempty"`
	RecipePreviews       []RecipePreview `json:"recipe_previews,omitempty"`
}

// State is everything known about one turn. The zero value is not ready to
// use; start from NewState.
type State struct {
	Steps        [len(Steps)]StepState
	Data         StepData
	Started      bool
	Complete     bool
	Done         bool
	FinalMessage string
	Recipes      []Recipe
	Error        string
	Reply        string
}

// NewState returns the state at the start of a turn: every step pending.
func NewState() State {
	var s State
	for i := range s.Steps {
		s.Steps[i] = StepState{Status: StatusPending}
	}
	return s
}

// Step returns the state of one step
func (s State) Step(step Step) StepState {
	return s.Steps[step]
}

// Apply folds one event into the state and returns the new state. The input
// is never modified. A non-nil error means the event was ignored; the
// returned state is then equal to s.
func Apply(s State, ev Event) (State, error) {
	switch ev.Type {
	case EventStepUpdate, EventStepComplete:
		return applyStep(s, ev)

	case EventComplete:
		s.Complete = true
		s.Done = true
		if ev.Message != "" {
			s.FinalMessage = ev.Message
		}
		if ev.Summary != nil && ev.Summary.Recipes != nil {
			s.Recipes = append([]Recipe(nil), ev.Summary.Recipes...)
		}
		s = reconcile(s, ev.StepSummary)
		return s, nil

	case EventError:
		s.Done = true
		s.Error = firstNonEmpty(ev.Message, ev.Error, defaultErrorMessage)
		if ev.Step != nil {
			if step, ok := ParseStep(ev.Step.StepName); ok {
				s.Steps[step] = StepState{
					Status:  StatusError,
					Message: firstNonEmpty(ev.Step.Message, defaultErrorMessage),
				}
			}
			s.Started = true
		}
		s = reconcile(s, ev.StepSummary)
		return s, nil

	case EventMessage:
		s.Done = true
		s.Reply = ev.Message
		return s, nil
	}

	return s, fmt.Errorf("unknown event type %q", ev.Type)
}

func applyStep(s State, ev Event) (State, error) {
	if ev.Step == nil {
		return s, ErrMissingStep
	}
	step, ok := ParseStep(ev.Step.StepName)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownStep, ev.Step.StepName)
	}

	s.Started = true

	status := ev.Step.Status
	if status == "" {
		status = StatusInProgress
		if ev.Type == EventStepComplete {
			status = StatusCompleted
		}
	}
	s.Steps[step] = StepState{Status: status, Message: ev.Step.Message}

	if ev.Type != EventStepComplete {
		return s, nil
	}

	p, ok := decodeStepPayload(ev.Data)
	if !ok {
		return s, nil
	}
	switch step {
	case ExtractIngredients:
		if list, ok := asStrings(p.Ingredients); ok {
			s.Data.ExtractedIngredients = list
		}
	case FormatIngredients:
		if text, ok := asString(p.Formatted); ok && text != "" {
			s.Data.FormattedIngredients = splitFormatted(text)
		}
	case SearchRecipes:
		if n, ok := asInt(p.RecipeCount); ok {
			s.Data.RecipeCount = intPtr(n)
		}
		if previews, ok := asPreviews(p.RecipePreviews); ok {
			s.Data.RecipePreviews = previews
		}
	case GetRecipeDetails:
		if n, ok := asInt(p.DetailsCount); ok {
			s.Data.DetailsCount = intPtr(n)
		}
	}
	return s, nil
}

// reconcile marks every step the summary reports as finished completed and
// backfills its data. Data is replaced, never appended, so applying the same
// summary twice yields the same state.
func reconcile(s State, summary map[string]StepOutcome) State {
	for name, outcome := range summary {
		step, ok := ParseStep(name)
		if !ok || !outcome.Completed {
			continue
		}

		prev := s.Steps[step]
		s.Steps[step] = StepState{
			Status:  StatusCompleted,
			Message: firstNonEmpty(prev.Message, name+" completed"),
		}

		s.Data = backfill(s.Data, step, outcome.Data)
	}
	return s
}

// backfill applies summary data, which is a bare value rather than the
// object form used by step_complete. Values of the wrong JSON kind are
// ignored.
func backfill(d StepData, step Step, raw json.RawMessage) StepData {
	switch step {
	case ExtractIngredients:
		if list, ok := asStrings(raw); ok {
			d.ExtractedIngredients = list
		}
	case FormatIngredients:
		if text, ok := asString(raw); ok {
			d.FormattedIngredients = splitFormatted(text)
		}
	case SearchRecipes:
		if n, ok := asInt(raw); ok {
			d.RecipeCount = intPtr(n)
		}
	case GetRecipeDetails:
		if n, ok := asInt(raw); ok {
			d.DetailsCount = intPtr(n)
		}
	}
	return d
}

func splitFormatted(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
