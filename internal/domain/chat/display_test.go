package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWith(statuses ...Status) State {
	s := NewState()
	s.Started = true
	for i, st := range statuses {
		s.Steps[i].Status = st
	}
	return s
}

func TestVisible_Frontier(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []Step
	}{
		{
			name:  "not started",
			state: NewState(),
			want:  nil,
		},
		{
			name:  "first step running",
			state: stateWith(StatusInProgress),
			want:  []Step{ExtractIngredients},
		},
		{
			name:  "second running after first completed",
			state: stateWith(StatusCompleted, StatusInProgress),
			want:  []Step{ExtractIngredients, FormatIngredients},
		},
		{
			name:  "pending step behind the frontier is shown",
			state: stateWith(StatusPending, StatusPending, StatusCompleted),
			want:  []Step{ExtractIngredients, FormatIngredients, SearchRecipes},
		},
		{
			name:  "errored step beyond the frontier is shown",
			state: stateWith(StatusCompleted, StatusPending, StatusPending, StatusError),
			want:  []Step{ExtractIngredients, GetRecipeDetails},
		},
		{
			name:  "running step before a completed one",
			state: stateWith(StatusInProgress, StatusCompleted),
			want:  []Step{ExtractIngredients, FormatIngredients},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.VisibleSteps())
		})
	}
}

func TestVisible_CompleteHidesDetailsStep(t *testing.T) {
	s := NewState()
	s.Complete = true

	assert.Equal(t, []Step{ExtractIngredients, FormatIngredients, SearchRecipes}, s.VisibleSteps())
	assert.False(t, s.Visible(GetRecipeDetails))
}

func TestLabel(t *testing.T) {
	two, nine := 2, 9

	t.Run("in progress defaults", func(t *testing.T) {
		s := stateWith(StatusInProgress, StatusInProgress, StatusInProgress, StatusInProgress)

		assert.Equal(t, "Analyzing fridge contents...", s.Label(ExtractIngredients))
		assert.Equal(t, "Formatting ingredients for recipe search...", s.Label(FormatIngredients))
		assert.Equal(t, "Searching for recipes...", s.Label(SearchRecipes))
		assert.Equal(t, "Getting recipe details...", s.Label(GetRecipeDetails))
	})

	t.Run("in progress message wins", func(t *testing.T) {
		s := stateWith(StatusInProgress)
		s.Steps[ExtractIngredients].Message = "Zooming in on the crisper"

		assert.Equal(t, "Zooming in on the crisper", s.Label(ExtractIngredients))
	})

	t.Run("completed with data", func(t *testing.T) {
		s := stateWith(StatusCompleted, StatusCompleted, StatusCompleted, StatusCompleted)
		s.Data = StepData{
			ExtractedIngredients: []string{"a", "b", "c", "d"},
			FormattedIngredients: []string{"a", "b"},
			RecipeCount:          &nine,
			DetailsCount:         &two,
		}

		assert.Equal(t, "4 ingredients found", s.Label(ExtractIngredients))
		assert.Equal(t, "Used 2 of 4 ingredients", s.Label(FormatIngredients))
		assert.Equal(t, "Found 9 recipes", s.Label(SearchRecipes))
		assert.Equal(t, "Retrieved details for 2 recipes", s.Label(GetRecipeDetails))
	})

	t.Run("completed without data", func(t *testing.T) {
		s := stateWith(StatusCompleted, StatusCompleted)
		s.Steps[FormatIngredients].Message = "Format Ingredients completed"

		assert.Equal(t, "Completed", s.Label(ExtractIngredients))
		assert.Equal(t, "Format Ingredients completed", s.Label(FormatIngredients))
	})

	t.Run("errors", func(t *testing.T) {
		s := stateWith(StatusError, StatusError, StatusError, StatusError)

		assert.Equal(t, "Error extracting ingredients", s.Label(ExtractIngredients))
		assert.Equal(t, "Error formatting ingredients", s.Label(FormatIngredients))
		assert.Equal(t, "Error searching recipes", s.Label(SearchRecipes))
		assert.Equal(t, "Error getting recipe details", s.Label(GetRecipeDetails))
	})

	t.Run("pending is blank", func(t *testing.T) {
		assert.Empty(t, NewState().Label(SearchRecipes))
	})
}

func TestView(t *testing.T) {
	// Arrange
	s := applyAll(t, fullTurn(t))

	// Act
	v := s.View()

	// Assert
	assert.True(t, v.Complete)
	require.Len(t, v.Steps, 3)
	assert.Equal(t, "Extract Ingredients", v.Steps[0].Name)
	assert.Equal(t, "4 ingredients found", v.Steps[0].Label)
	assert.Equal(t, "Used 3 of 4 ingredients", v.Steps[1].Label)
	assert.Equal(t, "Found 2 recipes", v.Steps[2].Label)
	assert.Len(t, v.Recipes, 2)
	assert.Empty(t, v.Error)
}

func TestParseStep(t *testing.T) {
	for _, step := range Steps {
		got, ok := ParseStep(step.String())
		require.True(t, ok)
		assert.Equal(t, step, got)
	}

	_, ok := ParseStep("extract ingredients")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", Step(7).String())
}
