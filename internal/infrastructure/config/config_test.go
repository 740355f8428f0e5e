package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ConfigTestSuite) writeFile(body string) string {
	path := filepath.Join(suite.dir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (suite *ConfigTestSuite) TestLoad() {
	suite.Run("Defaults_ShouldMatchStockCollectionNames", func() {
		// Arrange
		path := suite.writeFile("app:\n  name: FridgeChef\n")

		// Act
		cfg, err := Load(path)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), DefaultCollections(), cfg.Mongo.Collections)
		assert.Equal(suite.T(), 24*time.Hour, cfg.Auth.SessionTTL)
		assert.Equal(suite.T(), 10<<20, cfg.Chat.MaxImageBytes)
		assert.Equal(suite.T(), "fridgechef_session", cfg.Auth.CookieName)
	})

	suite.Run("FileOverrides_ShouldReplaceSingleCollection", func() {
		// Arrange
		path := suite.writeFile("mongo:\n  collections:\n    recipes: saved_recipes\n")

		// Act
		cfg, err := Load(path)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "saved_recipes", cfg.Mongo.Collections.Recipes)
		assert.Equal(suite.T(), "users", cfg.Mongo.Collections.Users)
	})

	suite.Run("EnvOverrides_ShouldWinOverDefaults", func() {
		// Arrange
		path := suite.writeFile("app:\n  name: FridgeChef\n")
		suite.T().Setenv("FRIDGECHEF_SERVER_PORT", "9090")
		suite.T().Setenv("FRIDGECHEF_CHAT_BACKEND_URL", "http://agent:8000")

		// Act
		cfg, err := Load(path)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 9090, cfg.Server.Port)
		assert.Equal(suite.T(), "http://agent:8000", cfg.Chat.BackendURL)
	})

	suite.Run("ProductionWithoutSecret_ShouldFail", func() {
		// Arrange
		path := suite.writeFile("app:\n  environment: production\n")

		// Act
		_, err := Load(path)

		// Assert
		require.Error(suite.T(), err)
		assert.Contains(suite.T(), err.Error(), "jwt_secret")
	})
}

func (suite *ConfigTestSuite) TestValidate() {
	valid := func() *Config {
		return &Config{
			App:    AppConfig{Name: "FridgeChef", Environment: "test"},
			Server: ServerConfig{Port: 8080},
			Mongo:  MongoConfig{Database: "fridgechef", Collections: DefaultCollections()},
			Auth:   AuthConfig{SessionTTL: time.Hour},
		}
	}

	suite.Run("EmptyCollectionName_ShouldFail", func() {
		cfg := valid()
		cfg.Mongo.Collections.Sessions = ""

		err := cfg.Validate()

		require.Error(suite.T(), err)
		assert.Contains(suite.T(), err.Error(), "mongo.collections.sessions")
	})

	suite.Run("PortOutOfRange_ShouldFail", func() {
		cfg := valid()
		cfg.Server.Port = 70000

		assert.Error(suite.T(), cfg.Validate())
	})

	suite.Run("ValidConfig_ShouldPass", func() {
		assert.NoError(suite.T(), valid().Validate())
	})
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
