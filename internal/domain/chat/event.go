package chat

import (
	"bytes"
	"encoding/json"
	"errors"
)

// EventType discriminates the events of a turn
type EventType string

const (
	EventStepUpdate   EventType = "step_update"
	EventStepComplete EventType = "step_complete"
	EventComplete     EventType = "complete"
	EventError        EventType = "error"
	EventMessage      EventType = "message"
)

// Event is one line of the upstream NDJSON stream
type Event struct {
	Type        EventType              `json:"type"`
	Step        *StepInfo              `json:"step,omitempty"`
	Data        json.RawMessage        `json:"data,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Summary     *Summary               `json:"summary,omitempty"`
	StepSummary map[string]StepOutcome `json:"step_summary,omitempty"`
}

// StepInfo names the step an event refers to
type StepInfo struct {
	StepName string `json:"step_name"`
	Status   Status `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Summary is the payload of a complete event
type Summary struct {
	TotalIngredients int      `json:"total_ingredients"`
	TotalRecipes     int      `json:"total_recipes"`
	Recipes          []Recipe `json:"recipes"`
}

// StepOutcome is the authoritative per-step result carried by terminal events
type StepOutcome struct {
	Completed bool            `json:"completed"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RecipePreview is the short form of a search hit
type RecipePreview struct {
	ID                    int64  `json:"id"`
	Title                 string `json:"title"`
	UsedIngredientCount   int    `json:"usedIngredientCount"`
	MissedIngredientCount int    `json:"missedIngredientCount"`
}

// Recipe is a suggested recipe from the final summary. The fields the
// service reads are decoded; Raw keeps the full upstream object so it can be
// relayed or saved without loss.
type Recipe struct {
	ID                    int64  `json:"id"`
	Title                 string `json:"title"`
	Image                 string `json:"image,omitempty"`
	ReadyInMinutes        int    `json:"readyInMinutes,omitempty"`
	UsedIngredientCount   int    `json:"usedIngredientCount,omitempty"`
	MissedIngredientCount int    `json:"missedIngredientCount,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes leniently: a field of the wrong type is left at its
// zero value instead of rejecting the whole event.
func (r *Recipe) UnmarshalJSON(b []byte) error {
	type alias Recipe
	var a alias
	if err := lenient(json.Unmarshal(b, &a)); err != nil {
		return err
	}
	*r = Recipe(a)
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON writes the original upstream object when one is known
func (r Recipe) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type alias Recipe
	return json.Marshal(alias(r))
}

// stepPayload is the data object of a step_complete event. Fields stay raw
// so each can be checked for the JSON kind its step expects.
type stepPayload struct {
	Ingredients    json.RawMessage `json:"ingredients"`
	Formatted      json.RawMessage `json:"formatted"`
	RecipeCount    json.RawMessage `json:"recipe_count"`
	DetailsCount   json.RawMessage `json:"details_count"`
	RecipePreviews json.RawMessage `json:"recipe_previews"`
}

func decodeStepPayload(raw json.RawMessage) (stepPayload, bool) {
	var p stepPayload
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return p, false
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, false
	}
	return p, true
}

// asStrings decodes a JSON array of strings
func asStrings(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	list := []string{}
	if lenient(json.Unmarshal(raw, &list)) != nil {
		return nil, false
	}
	return list, true
}

// asString decodes a JSON string
func asString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	var text string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &text) != nil {
		return "", false
	}
	return text, true
}

// asInt decodes a JSON number, truncating any fraction
func asInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, false
	}
	var n float64
	if json.Unmarshal(raw, &n) != nil {
		return 0, false
	}
	return int(n), true
}

// asPreviews decodes a JSON array of recipe previews
func asPreviews(raw json.RawMessage) ([]RecipePreview, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	list := []RecipePreview{}
	if lenient(json.Unmarshal(raw, &list)) != nil {
		return nil, false
	}
	return list, true
}

// lenient drops type mismatches, which json.Unmarshal reports after filling
// every field it could.
func lenient(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}
