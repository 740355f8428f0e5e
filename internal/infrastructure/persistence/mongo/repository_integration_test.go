//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type recipeRepositorySuite struct {
	testutils.RecipeRepositoryContract
}

type userRepositorySuite struct {
	testutils.UserRepositoryContract
}

func setupConnection(t *testing.T) (*testutils.TestDatabase, *ConnectionManager) {
	db := testutils.SetupTestDatabase(t)
	cm := NewConnectionManagerFromClient(db.Client, db.DB.Name(), config.DefaultCollections(), zap.NewNop())
	require.NoError(t, cm.EnsureIndexes(context.Background()))
	return db, cm
}

func TestMongoRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, cm := setupConnection(t)
	collections := config.DefaultCollections()

	t.Run("Recipes", func(t *testing.T) {
		s := &recipeRepositorySuite{}
		s.NewRepo = func() outbound.RecipeRepository {
			db.Truncate(collections.Recipes)
			return NewRecipeRepository(cm)
		}
		suite.Run(t, s)
	})

	t.Run("Users", func(t *testing.T) {
		s := &userRepositorySuite{}
		s.NewRepo = func() outbound.UserRepository {
			db.Truncate(collections.Users)
			return NewUserRepository(cm)
		}
		suite.Run(t, s)
	})

	t.Run("Sessions", func(t *testing.T) {
		ctx := context.Background()
		db.Truncate(collections.Sessions)
		store := NewSessionStore(cm)

		require.NoError(t, store.Track(ctx, "u1", "a", time.Hour))
		require.NoError(t, store.Track(ctx, "u2", "b", time.Hour))
		require.NoError(t, store.Revoke(ctx, "c", time.Hour))
		require.NoError(t, store.RevokeAll(ctx, "u1"))

		for jti, want := range map[string]bool{"a": true, "b": false, "c": true, "missing": false} {
			got, err := store.IsRevoked(ctx, jti)
			require.NoError(t, err)
			assert.Equal(t, want, got, jti)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, cm.Ping(context.Background()))
	})
}
