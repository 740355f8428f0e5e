package user

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// UserTestSuite provides a test suite for the User entity
type UserTestSuite struct {
	suite.Suite
}

func (suite *UserTestSuite) TestNewUser() {
	suite.Run("ValidInput_ShouldHashPassword", func() {
		// Act
		u, err := NewUser("  chef  ", "s3cret", bcrypt.MinCost)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "chef", u.Username())
		assert.NotEqual(suite.T(), "s3cret", u.PasswordHash())
		assert.True(suite.T(), u.CheckPassword("s3cret"))
		assert.False(suite.T(), u.CheckPassword("wrong"))
		assert.Empty(suite.T(), u.ID())
	})

	suite.Run("MissingFields_ShouldFail", func() {
		_, err := NewUser("", "pw", bcrypt.MinCost)
		assert.ErrorIs(suite.T(), err, ErrMissingFields)

		_, err = NewUser("chef", "", bcrypt.MinCost)
		assert.ErrorIs(suite.T(), err, ErrMissingFields)
	})

	suite.Run("LongPassword_ShouldFail", func() {
		_, err := NewUser("longpw", strings.Repeat("a", MaxPasswordBytes+1), bcrypt.MinCost)
		assert.ErrorIs(suite.T(), err, ErrPasswordTooLong)

		u, err := NewUser("longpw", strings.Repeat("a", MaxPasswordBytes), bcrypt.MinCost)
		require.NoError(suite.T(), err)
		assert.True(suite.T(), u.CheckPassword(strings.Repeat("a", MaxPasswordBytes)))
	})
}

func (suite *UserTestSuite) TestChangePassword() {
	suite.Run("WrongCurrent_ShouldFail", func() {
		// Arrange
		u, err := NewUser("chef", "old", bcrypt.MinCost)
		require.NoError(suite.T(), err)

		// Act
		err = u.ChangePassword("nope", "new", bcrypt.MinCost)

		// Assert
		assert.ErrorIs(suite.T(), err, ErrInvalidPassword)
		assert.True(suite.T(), u.CheckPassword("old"))
	})

	suite.Run("CorrectCurrent_ShouldReplaceHash", func() {
		u, err := NewUser("chef", "old", bcrypt.MinCost)
		require.NoError(suite.T(), err)

		require.NoError(suite.T(), u.ChangePassword("old", "new", bcrypt.MinCost))

		assert.True(suite.T(), u.CheckPassword("new"))
		assert.False(suite.T(), u.CheckPassword("old"))
	})
}

func (suite *UserTestSuite) TestChangePassword_LongPassword() {
	u, err := NewUser("chef", "old", bcrypt.MinCost)
	require.NoError(suite.T(), err)

	err = u.ChangePassword("old", strings.Repeat("b", MaxPasswordBytes+1), bcrypt.MinCost)

	assert.ErrorIs(suite.T(), err, ErrPasswordTooLong)
	assert.True(suite.T(), u.CheckPassword("old"))
}

func (suite *UserTestSuite) TestRename() {
	u := Rehydrate("id-1", "chef", "hash", time.Time{}, time.Time{})

	assert.ErrorIs(suite.T(), u.Rename(" "), ErrMissingFields)
	require.NoError(suite.T(), u.Rename("sous"))
	assert.Equal(suite.T(), "sous", u.Username())
	assert.Equal(suite.T(), "id-1", u.ID())
}

func TestUserTestSuite(t *testing.T) {
	suite.Run(t, new(UserTestSuite))
}
