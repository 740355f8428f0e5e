package testutils

import (
	"context"
	"time"

	"github.com/alchemorsel/fridgechef/internal/domain/recipe"
	"github.com/alchemorsel/fridgechef/internal/domain/user"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeRepositoryContract is the behaviour every outbound.RecipeRepository
// must show. Embed it in a suite and set NewRepo.
type RecipeRepositoryContract struct {
	suite.Suite
	NewRepo func() outbound.RecipeRepository

	repo    outbound.RecipeRepository
	factory *RecipeFactory
	ctx     context.Context
}

// SetupTest builds a fresh repository
func (s *RecipeRepositoryContract) SetupTest() {
	s.repo = s.NewRepo()
	s.factory = NewRecipeFactory(time.Now().UnixNano())
	s.ctx = context.Background()
}

func (s *RecipeRepositoryContract) save(owner string, b *RecipeBuilder) *recipe.SavedRecipe {
	r := b.Build(owner)
	require.NoError(s.T(), s.repo.Save(s.ctx, r))
	return r
}

// TestSave covers inserts and the (owner, external id) uniqueness
func (s *RecipeRepositoryContract) TestSave() {
	s.Run("Save_ThenFindByID_ShouldRoundTrip", func() {
		// Arrange
		cmd := s.factory.Command()
		r := cmd.ToEntity("64b7f0c2a1b2c3d4e5f60711")

		// Act
		err := s.repo.Save(s.ctx, r)
		found, findErr := s.repo.FindByID(s.ctx, r.OwnerID, r.ID)

		// Assert
		require.NoError(s.T(), err)
		require.NoError(s.T(), findErr)
		assert.NotEmpty(s.T(), r.ID)
		assert.False(s.T(), r.CreatedAt.IsZero())
		SameRecipe(s.T(), cmd, inbound.NewSavedRecipeDTO(found))
	})

	s.Run("Save_SameExternalIDTwice_ShouldConflict", func() {
		// Arrange
		owner := "64b7f0c2a1b2c3d4e5f60712"
		first := s.save(owner, NewRecipeBuilder().WithExternalID(4242).WithTitle("First"))

		// Act
		err := s.repo.Save(s.ctx, NewRecipeBuilder().WithExternalID(4242).WithTitle("Second").Build(owner))

		// Assert
		assert.ErrorIs(s.T(), err, recipe.ErrRecipeAlreadySaved)
		kept, findErr := s.repo.FindByID(s.ctx, owner, first.ID)
		require.NoError(s.T(), findErr)
		assert.Equal(s.T(), "First", kept.Title)
	})

	s.Run("Save_SameExternalIDForAnotherOwner_ShouldSucceed", func() {
		s.save("64b7f0c2a1b2c3d4e5f60713", NewRecipeBuilder().WithExternalID(77))

		err := s.repo.Save(s.ctx, NewRecipeBuilder().WithExternalID(77).Build("64b7f0c2a1b2c3d4e5f60714"))

		assert.NoError(s.T(), err)
	})
}

// TestListAndSearch covers ordering and substring matching
func (s *RecipeRepositoryContract) TestListAndSearch() {
	owner := "64b7f0c2a1b2c3d4e5f60721"
	other := "64b7f0c2a1b2c3d4e5f60722"

	oldest := s.save(owner, NewRecipeBuilder().WithExternalID(1).WithTitle("Spinach Omelette").
		WithSummary("A quick breakfast").WithIngredients("eggs", "spinach"))
	time.Sleep(5 * time.Millisecond)
	middle := s.save(owner, NewRecipeBuilder().WithExternalID(2).WithTitle("Tomato Soup").
		WithSummary("Warming <b>bowl</b>").WithIngredients("tomato", "basil"))
	time.Sleep(5 * time.Millisecond)
	newest := s.save(owner, NewRecipeBuilder().WithExternalID(3).WithTitle("Green Smoothie").
		WithSummary("Blend it").WithIngredients("Baby Spinach", "banana"))
	s.save(other, NewRecipeBuilder().WithExternalID(4).WithTitle("Spinach Pie").WithIngredients("spinach"))

	ids := func(list []*recipe.SavedRecipe) []string {
		out := make([]string, 0, len(list))
		for _, r := range list {
			out = append(out, r.ID)
		}
		return out
	}

	s.Run("List_ShouldReturnOwnRecipesNewestFirst", func() {
		list, err := s.repo.ListByOwner(s.ctx, owner)

		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{newest.ID, middle.ID, oldest.ID}, ids(list))
	})

	s.Run("Search_ShouldMatchTitleSummaryAndIngredientsIgnoringCase", func() {
		bySpinach, err := s.repo.Search(s.ctx, owner, "SPINACH")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{newest.ID, oldest.ID}, ids(bySpinach))

		bySummary, err := s.repo.Search(s.ctx, owner, "bowl")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{middle.ID}, ids(bySummary))
	})

	s.Run("Search_WithRegexCharacters_ShouldMatchLiterally", func() {
		found, err := s.repo.Search(s.ctx, owner, "<b>")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []string{middle.ID}, ids(found))

		none, err := s.repo.Search(s.ctx, owner, ".*")
		require.NoError(s.T(), err)
		assert.Empty(s.T(), none)
	})

	s.Run("List_UnknownOwner_ShouldBeEmpty", func() {
		list, err := s.repo.ListByOwner(s.ctx, "64b7f0c2a1b2c3d4e5f607ff")

		require.NoError(s.T(), err)
		assert.Empty(s.T(), list)
	})
}

// TestOwnership covers owner scoping of reads and deletes
func (s *RecipeRepositoryContract) TestOwnership() {
	owner := "64b7f0c2a1b2c3d4e5f60731"
	intruder := "64b7f0c2a1b2c3d4e5f60732"

	s.Run("FindByID_OtherOwner_ShouldBeNotFound", func() {
		r := s.save(owner, NewRecipeBuilder())

		_, err := s.repo.FindByID(s.ctx, intruder, r.ID)

		assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
	})

	s.Run("FindByID_MalformedID_ShouldBeNotFound", func() {
		_, err := s.repo.FindByID(s.ctx, owner, "not-an-id")

		assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
	})

	s.Run("Delete_ByNonOwner_ShouldKeepRecipe", func() {
		// Arrange
		r := s.save(owner, NewRecipeBuilder())

		// Act
		err := s.repo.Delete(s.ctx, intruder, r.ID)

		// Assert
		assert.ErrorIs(s.T(), err, recipe.ErrRecipeNotFound)
		_, findErr := s.repo.FindByID(s.ctx, owner, r.ID)
		assert.NoError(s.T(), findErr)
	})

	s.Run("Delete_ByOwner_ShouldRemoveAndFreeExternalID", func() {
		// Arrange
		r := s.save(owner, NewRecipeBuilder().WithExternalID(555))

		// Act
		err := s.repo.Delete(s.ctx, owner, r.ID)

		// Assert
		require.NoError(s.T(), err)
		_, findErr := s.repo.FindByID(s.ctx, owner, r.ID)
		assert.ErrorIs(s.T(), findErr, recipe.ErrRecipeNotFound)
		assert.ErrorIs(s.T(), s.repo.Delete(s.ctx, owner, r.ID), recipe.ErrRecipeNotFound)
		assert.NoError(s.T(), s.repo.Save(s.ctx, NewRecipeBuilder().WithExternalID(555).Build(owner)))
	})

	s.Run("DeleteByOwner_ShouldOnlyTouchThatOwner", func() {
		// Arrange
		victim := "64b7f0c2a1b2c3d4e5f60733"
		s.save(victim, NewRecipeBuilder().WithExternalID(901))
		s.save(victim, NewRecipeBuilder().WithExternalID(902))
		survivor := s.save(intruder, NewRecipeBuilder().WithExternalID(903))

		// Act
		deleted, err := s.repo.DeleteByOwner(s.ctx, victim)

		// Assert
		require.NoError(s.T(), err)
		assert.Equal(s.T(), int64(2), deleted)
		left, _ := s.repo.ListByOwner(s.ctx, victim)
		assert.Empty(s.T(), left)
		_, findErr := s.repo.FindByID(s.ctx, intruder, survivor.ID)
		assert.NoError(s.T(), findErr)
	})
}

// UserRepositoryContract is the behaviour every outbound.UserRepository must show
type UserRepositoryContract struct {
	suite.Suite
	NewRepo func() outbound.UserRepository

	repo outbound.UserRepository
	ctx  context.Context
}

// SetupTest builds a fresh repository
func (s *UserRepositoryContract) SetupTest() {
	s.repo = s.NewRepo()
	s.ctx = context.Background()
}

func (s *UserRepositoryContract) create(username string) *user.User {
	u, err := user.NewUser(username, "correct horse", 4)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.repo.Create(s.ctx, u))
	return u
}

// TestUsers covers creation, lookup, rename and delete
func (s *UserRepositoryContract) TestUsers() {
	s.Run("Create_ShouldAssignIDAndBeFindable", func() {
		u := s.create("alice")

		byID, err := s.repo.FindByID(s.ctx, u.ID())
		require.NoError(s.T(), err)
		byName, err := s.repo.FindByUsername(s.ctx, "alice")
		require.NoError(s.T(), err)

		assert.NotEmpty(s.T(), u.ID())
		assert.Equal(s.T(), u.ID(), byID.ID())
		assert.Equal(s.T(), u.ID(), byName.ID())
		assert.True(s.T(), byName.CheckPassword("correct horse"))
	})

	s.Run("Create_DuplicateUsername_ShouldFail", func() {
		s.create("bob")

		dup, _ := user.NewUser("bob", "another pass", 4)
		err := s.repo.Create(s.ctx, dup)

		assert.ErrorIs(s.T(), err, user.ErrUsernameTaken)
	})

	s.Run("Update_RenameOntoTakenName_ShouldFail", func() {
		s.create("carol")
		dave := s.create("dave")

		require.NoError(s.T(), dave.Rename("carol"))
		err := s.repo.Update(s.ctx, dave)

		assert.ErrorIs(s.T(), err, user.ErrUsernameTaken)
	})

	s.Run("Update_Rename_ShouldMoveLookup", func() {
		erin := s.create("erin")

		require.NoError(s.T(), erin.Rename("erin2"))
		require.NoError(s.T(), s.repo.Update(s.ctx, erin))

		_, err := s.repo.FindByUsername(s.ctx, "erin")
		assert.ErrorIs(s.T(), err, user.ErrUserNotFound)
		found, err := s.repo.FindByUsername(s.ctx, "erin2")
		require.NoError(s.T(), err)
		assert.Equal(s.T(), erin.ID(), found.ID())
	})

	s.Run("Delete_ShouldRemoveUser", func() {
		frank := s.create("frank")

		require.NoError(s.T(), s.repo.Delete(s.ctx, frank.ID()))

		_, err := s.repo.FindByID(s.ctx, frank.ID())
		assert.ErrorIs(s.T(), err, user.ErrUserNotFound)
		assert.ErrorIs(s.T(), s.repo.Delete(s.ctx, frank.ID()), user.ErrUserNotFound)
	})

	s.Run("FindByID_Malformed_ShouldBeNotFound", func() {
		_, err := s.repo.FindByID(s.ctx, "zzz")

		assert.ErrorIs(s.T(), err, user.ErrUserNotFound)
	})
}
