package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appchat "github.com/alchemorsel/fridgechef/internal/application/chat"
	apprecipe "github.com/alchemorsel/fridgechef/internal/application/recipe"
	appuser "github.com/alchemorsel/fridgechef/internal/application/user"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/monitoring"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/security"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"github.com/alchemorsel/fridgechef/pkg/healthcheck"
	"github.com/alchemorsel/fridgechef/test/testutils"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "fridgechef_session"

var turnLines = []string{
	`{"type":"step_update","step":{"step_name":"Extract Ingredients","status":"in_progress"}}`,
	`{"type":"step_complete","step":{"step_name":"Extract Ingredients","status":"completed"},"data":{"ingredients":["eggs","spinach"]}}`,
	`{"type":"complete","message":"Try this","summary":{"recipes":[{"id":7,"title":"Frittata","usedIngredients":[{"name":"eggs"}]}]}}`,
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "fridgechef", Version: "test", Environment: "test"},
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{
			JWTSecret:  "server-test-secret",
			SessionTTL: time.Hour,
			CookieName: cookieName,
			BCryptCost: bcrypt.MinCost,
		},
		Chat:       config.ChatConfig{MaxImageBytes: 1 << 20},
		RateLimit:  config.RateLimitConfig{Enable: false},
		Monitoring: config.MonitoringConfig{EnableMetrics: true, MetricsPath: "/metrics"},
	}
}

// ServerTestSuite drives the full router with in-memory persistence and a
// mocked chat backend
type ServerTestSuite struct {
	suite.Suite
	backend *testutils.MockChatBackend
	handler http.Handler
	http    *testutils.HTTPAssertions
	users   *testutils.UserFactory
	recipes *testutils.RecipeFactory
}

func (suite *ServerTestSuite) SetupTest() {
	cfg := testConfig()
	logger := zap.NewNop()

	sessionStore := memory.NewSessionStore(0)
	userRepo := memory.NewUserRepository()
	recipeRepo := memory.NewRecipeRepository()
	metrics := monitoring.NewMetrics(logger)

	sessions, err := security.NewSessionManager(cfg, sessionStore, logger)
	require.NoError(suite.T(), err)

	suite.backend = new(testutils.MockChatBackend)
	recipeService := apprecipe.NewRecipeService(recipeRepo, metrics, logger)
	userService := appuser.NewUserService(userRepo, recipeRepo, sessionStore, cfg.Auth.BCryptCost, logger)
	chatService := appchat.NewChatService(suite.backend, metrics, int64(cfg.Chat.MaxImageBytes), logger)

	mw := middleware.New(cfg, logger)
	health := healthcheck.New(cfg.App.Version, logger)
	health.Register("store", healthcheck.NewPingChecker(func(context.Context) error { return nil }))

	server := NewServer(cfg, logger, mw, sessions, metrics, health, Handlers{
		Recipes: handlers.NewRecipeHandlers(recipeService, logger),
		Auth:    handlers.NewAuthHandlers(userService, sessions, mw, logger),
		Account: handlers.NewAccountHandlers(userService, sessions, logger),
		Chat:    handlers.NewChatHandlers(chatService, cfg, logger),
	})

	suite.handler = server.Handler()
	suite.http = testutils.NewHTTPAssertions(suite.T())
	suite.users = testutils.NewUserFactory(time.Now().UnixNano())
	suite.recipes = testutils.NewRecipeFactory(time.Now().UnixNano())
}

func (suite *ServerTestSuite) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	return rec
}

// signIn creates an account and returns its session cookie
func (suite *ServerTestSuite) signIn() (inbound.CredentialsCommand, *http.Cookie) {
	creds := suite.users.Credentials()
	rec := suite.do(http.MethodPost, "/api/v1/auth/signup", creds, nil)
	suite.http.StatusCode(rec, http.StatusCreated, rec.Body.String())

	rec = suite.do(http.MethodPost, "/api/v1/auth/login", creds, nil)
	suite.http.StatusCode(rec, http.StatusOK, rec.Body.String())
	return creds, suite.http.SessionCookie(rec, cookieName)
}

func (suite *ServerTestSuite) TestAuth() {
	suite.Run("Signup_ShouldCreateUser", func() {
		creds := suite.users.Credentials()

		rec := suite.do(http.MethodPost, "/api/v1/auth/signup", creds, nil)

		suite.http.StatusCode(rec, http.StatusCreated)
		var body struct {
			Message string                `json:"message"`
			User    handlers.UserResponse `json:"user"`
		}
		suite.http.JSONResponse(rec, &body)
		assert.Equal(suite.T(), "User created", body.Message)
		assert.Equal(suite.T(), creds.Username, body.User.Username)
		assert.NotEmpty(suite.T(), body.User.ID)
	})

	suite.Run("Signup_Duplicate_ShouldConflict", func() {
		creds := suite.users.Credentials()
		suite.do(http.MethodPost, "/api/v1/auth/signup", creds, nil)

		rec := suite.do(http.MethodPost, "/api/v1/auth/signup", creds, nil)

		suite.http.ErrorResponse(rec, http.StatusConflict, "Username taken")
	})

	suite.Run("Signup_MissingFields_ShouldBeRejected", func() {
		rec := suite.do(http.MethodPost, "/api/v1/auth/signup", map[string]string{"username": "bob"}, nil)

		suite.http.ErrorResponse(rec, http.StatusBadRequest, "Missing fields")
	})

	suite.Run("Login_WrongPassword_ShouldBeUnauthorized", func() {
		creds := suite.users.Credentials()
		suite.do(http.MethodPost, "/api/v1/auth/signup", creds, nil)
		creds.Password += "x"

		rec := suite.do(http.MethodPost, "/api/v1/auth/login", creds, nil)

		suite.http.ErrorResponse(rec, http.StatusUnauthorized, "Invalid credentials")
		assert.Empty(suite.T(), rec.Result().Cookies())
	})

	suite.Run("Login_UnknownUser_ShouldLookLikeWrongPassword", func() {
		rec := suite.do(http.MethodPost, "/api/v1/auth/login", suite.users.Credentials(), nil)

		suite.http.ErrorResponse(rec, http.StatusUnauthorized, "Invalid credentials")
	})

	suite.Run("Session_WithCookie_ShouldReturnUser", func() {
		creds, cookie := suite.signIn()

		rec := suite.do(http.MethodGet, "/api/v1/auth/session", nil, cookie)

		suite.http.StatusCode(rec, http.StatusOK)
		var body struct {
			User handlers.UserResponse `json:"user"`
		}
		suite.http.JSONResponse(rec, &body)
		assert.Equal(suite.T(), creds.Username, body.User.Username)
	})

	suite.Run("Session_WithoutCookie_ShouldBeUnauthorized", func() {
		rec := suite.do(http.MethodGet, "/api/v1/auth/session", nil, nil)

		suite.http.ErrorResponse(rec, http.StatusUnauthorized, "Unauthorized")
	})

	suite.Run("Logout_ShouldRevokeToken", func() {
		// Arrange
		_, cookie := suite.signIn()

		// Act
		rec := suite.do(http.MethodPost, "/api/v1/auth/logout", nil, cookie)
		after := suite.do(http.MethodGet, "/api/v1/auth/session", nil, cookie)

		// Assert
		suite.http.StatusCode(rec, http.StatusOK)
		cleared := suite.http.SessionCookie(rec, cookieName)
		assert.Less(suite.T(), cleared.MaxAge, 0)
		suite.http.ErrorResponse(after, http.StatusUnauthorized, "Unauthorized")
	})
}

func (suite *ServerTestSuite) TestRecipes() {
	_, alice := suite.signIn()
	_, bob := suite.signIn()

	suite.Run("NoSession_ShouldBeUnauthorized", func() {
		rec := suite.do(http.MethodGet, "/api/v1/recipes", nil, nil)

		suite.http.ErrorResponse(rec, http.StatusUnauthorized, "Unauthorized")
	})

	suite.Run("Save_ShouldReturnCreated", func() {
		// Arrange
		cmd := suite.recipes.Command()

		// Act
		rec := suite.do(http.MethodPost, "/api/v1/recipes", cmd, alice)

		// Assert
		suite.http.StatusCode(rec, http.StatusCreated, rec.Body.String())
		var body struct {
			Message string                 `json:"message"`
			Recipe  inbound.SavedRecipeDTO `json:"recipe"`
		}
		suite.http.JSONResponse(rec, &body)
		assert.Equal(suite.T(), "Recipe saved successfully", body.Message)
		assert.NotEmpty(suite.T(), body.Recipe.ID)
		testutils.SameRecipe(suite.T(), cmd, body.Recipe)
	})

	suite.Run("Save_Twice_ShouldConflict", func() {
		cmd := suite.recipes.Command()
		suite.do(http.MethodPost, "/api/v1/recipes", cmd, alice)

		rec := suite.do(http.MethodPost, "/api/v1/recipes", cmd, alice)

		suite.http.ErrorResponse(rec, http.StatusConflict, "Recipe already saved")
	})

	suite.Run("Save_MissingTitle_ShouldBeBadRequest", func() {
		cmd := suite.recipes.Command()
		cmd.Title = ""

		rec := suite.do(http.MethodPost, "/api/v1/recipes", cmd, alice)

		suite.http.ErrorResponse(rec, http.StatusBadRequest, "Recipe ID and title are required")
	})

	suite.Run("Save_MalformedJSON_ShouldBeBadRequest", func() {
		rec := suite.do(http.MethodPost, "/api/v1/recipes", `{"id":`, alice)

		suite.http.ErrorResponse(rec, http.StatusBadRequest, "Invalid JSON payload")
	})

	suite.Run("ListAndSearch_ShouldBeScopedToOwner", func() {
		// Arrange
		_, carol := suite.signIn()
		soup := testutils.NewRecipeBuilder().WithTitle("Tomato Soup").WithIngredients("tomato").Command()
		pie := testutils.NewRecipeBuilder().WithTitle("Apple Pie").WithIngredients("apple").Command()
		suite.do(http.MethodPost, "/api/v1/recipes", soup, carol)
		suite.do(http.MethodPost, "/api/v1/recipes", pie, carol)
		suite.do(http.MethodPost, "/api/v1/recipes", soup, bob)

		// Act
		all := suite.do(http.MethodGet, "/api/v1/recipes", nil, carol)
		found := suite.do(http.MethodGet, "/api/v1/recipes?search=TOMATO", nil, carol)

		// Assert
		var allBody, foundBody struct {
			Recipes []inbound.SavedRecipeDTO `json:"recipes"`
		}
		suite.http.JSONResponse(all, &allBody)
		suite.http.JSONResponse(found, &foundBody)
		require.Len(suite.T(), allBody.Recipes, 2)
		assert.ElementsMatch(suite.T(), []string{"Tomato Soup", "Apple Pie"},
			[]string{allBody.Recipes[0].Title, allBody.Recipes[1].Title})
		require.Len(suite.T(), foundBody.Recipes, 1)
		assert.Equal(suite.T(), "Tomato Soup", foundBody.Recipes[0].Title)
	})

	suite.Run("List_Empty_ShouldReturnEmptyArray", func() {
		_, dave := suite.signIn()

		rec := suite.do(http.MethodGet, "/api/v1/recipes", nil, dave)

		suite.http.StatusCode(rec, http.StatusOK)
		assert.JSONEq(suite.T(), `{"recipes":[]}`, rec.Body.String())
	})

	suite.Run("GetAndDelete_ShouldHideForeignRecipes", func() {
		// Arrange
		rec := suite.do(http.MethodPost, "/api/v1/recipes", suite.recipes.Command(), alice)
		var saved struct {
			Recipe inbound.SavedRecipeDTO `json:"recipe"`
		}
		suite.http.JSONResponse(rec, &saved)
		path := "/api/v1/recipes/" + saved.Recipe.ID

		// Act
		foreignGet := suite.do(http.MethodGet, path, nil, bob)
		foreignDelete := suite.do(http.MethodDelete, path, nil, bob)
		ownGet := suite.do(http.MethodGet, path, nil, alice)
		ownDelete := suite.do(http.MethodDelete, path, nil, alice)
		afterDelete := suite.do(http.MethodGet, path, nil, alice)

		// Assert
		suite.http.ErrorResponse(foreignGet, http.StatusNotFound, "Recipe not found")
		suite.http.ErrorResponse(foreignDelete, http.StatusNotFound, "Recipe not found")
		suite.http.StatusCode(ownGet, http.StatusOK)
		suite.http.StatusCode(ownDelete, http.StatusOK)
		assert.JSONEq(suite.T(), `{"message":"Recipe deleted successfully"}`, ownDelete.Body.String())
		suite.http.ErrorResponse(afterDelete, http.StatusNotFound, "Recipe not found")
	})
}

func (suite *ServerTestSuite) TestAccount() {
	suite.Run("Rename_ShouldReissueSession", func() {
		// Arrange
		_, cookie := suite.signIn()
		newName := suite.users.Credentials().Username

		// Act
		rec := suite.do(http.MethodPatch, "/api/v1/account/username", map[string]string{"username": newName}, cookie)

		// Assert
		suite.http.StatusCode(rec, http.StatusOK, rec.Body.String())
		fresh := suite.http.SessionCookie(rec, cookieName)
		session := suite.do(http.MethodGet, "/api/v1/auth/session", nil, fresh)
		assert.Contains(suite.T(), session.Body.String(), newName)
		old := suite.do(http.MethodGet, "/api/v1/auth/session", nil, cookie)
		suite.http.StatusCode(old, http.StatusUnauthorized)
	})

	suite.Run("Rename_ToTakenName_ShouldConflict", func() {
		taken, _ := suite.signIn()
		_, cookie := suite.signIn()

		rec := suite.do(http.MethodPatch, "/api/v1/account/username", map[string]string{"username": taken.Username}, cookie)

		suite.http.ErrorResponse(rec, http.StatusConflict, "Username taken")
	})

	suite.Run("ChangePassword_WrongCurrent_ShouldBeUnauthorized", func() {
		_, cookie := suite.signIn()

		rec := suite.do(http.MethodPut, "/api/v1/account/password", inbound.ChangePasswordCommand{
			CurrentPassword: "not-the-password",
			NewPassword:     "a-new-password",
		}, cookie)

		suite.http.ErrorResponse(rec, http.StatusUnauthorized, "Current password is incorrect")
	})

	suite.Run("ChangePassword_ShouldAllowLoginWithNewPassword", func() {
		// Arrange
		creds, cookie := suite.signIn()

		// Act
		rec := suite.do(http.MethodPut, "/api/v1/account/password", inbound.ChangePasswordCommand{
			CurrentPassword: creds.Password,
			NewPassword:     "a-new-password",
		}, cookie)
		login := suite.do(http.MethodPost, "/api/v1/auth/login", inbound.CredentialsCommand{
			Username: creds.Username,
			Password: "a-new-password",
		}, nil)

		// Assert
		suite.http.StatusCode(rec, http.StatusOK, rec.Body.String())
		suite.http.StatusCode(login, http.StatusOK)
	})

	suite.Run("ChangePassword_ShortPassword_ShouldFailValidation", func() {
		creds, cookie := suite.signIn()

		rec := suite.do(http.MethodPut, "/api/v1/account/password", inbound.ChangePasswordCommand{
			CurrentPassword: creds.Password,
			NewPassword:     "short",
		}, cookie)

		suite.http.ErrorResponse(rec, http.StatusBadRequest, "new_password must be at least 8 characters")
	})

	suite.Run("Delete_ShouldCascadeAndEndSessions", func() {
		// Arrange
		creds, cookie := suite.signIn()
		suite.do(http.MethodPost, "/api/v1/recipes", suite.recipes.Command(), cookie)

		// Act
		rec := suite.do(http.MethodDelete, "/api/v1/account", nil, cookie)

		// Assert
		suite.http.StatusCode(rec, http.StatusOK, rec.Body.String())
		assert.Less(suite.T(), suite.http.SessionCookie(rec, cookieName).MaxAge, 0)
		suite.http.StatusCode(suite.do(http.MethodGet, "/api/v1/recipes", nil, cookie), http.StatusUnauthorized)
		login := suite.do(http.MethodPost, "/api/v1/auth/login", creds, nil)
		suite.http.ErrorResponse(login, http.StatusUnauthorized, "Invalid credentials")
	})
}

func (suite *ServerTestSuite) TestChatRelay() {
	_, cookie := suite.signIn()

	suite.Run("Success_ShouldStreamBodyUnchanged", func() {
		// Arrange
		req := outbound.ChatRequest{Message: "eggs and spinach"}
		suite.backend.On("Stream", mock.Anything, req).Return(testutils.NDJSONBody(turnLines...), nil).Once()

		// Act
		rec := suite.do(http.MethodPost, "/api/v1/chat", req, cookie)

		// Assert
		suite.http.StatusCode(rec, http.StatusOK)
		assert.Equal(suite.T(), "application/x-ndjson", rec.Header().Get("Content-Type"))
		assert.Equal(suite.T(), strings.Join(turnLines, "\n")+"\n", rec.Body.String())
		assert.True(suite.T(), rec.Flushed)
	})

	suite.Run("UpstreamError_ShouldReturnBadGateway", func() {
		req := outbound.ChatRequest{Message: "anything"}
		suite.backend.On("Stream", mock.Anything, req).
			Return(nil, errors.NewAppError(errors.CodeExternalServiceError, "Chat backend error: 503", "")).Once()

		rec := suite.do(http.MethodPost, "/api/v1/chat", req, cookie)

		suite.http.ErrorResponse(rec, http.StatusBadGateway, "Chat backend error: 503")
	})

	suite.Run("EmptyRequest_ShouldBeBadRequest", func() {
		rec := suite.do(http.MethodPost, "/api/v1/chat", outbound.ChatRequest{}, cookie)

		suite.http.ErrorResponse(rec, http.StatusBadRequest, "Message or image is required")
	})

	suite.Run("NoSession_ShouldBeUnauthorized", func() {
		rec := suite.do(http.MethodPost, "/api/v1/chat", outbound.ChatRequest{Message: "hi"}, nil)

		suite.http.StatusCode(rec, http.StatusUnauthorized)
	})
}

func (suite *ServerTestSuite) TestChatSocket() {
	// Arrange
	_, cookie := suite.signIn()
	server := httptest.NewServer(suite.handler)
	defer server.Close()

	header := http.Header{}
	header.Set("Cookie", (&http.Cookie{Name: cookie.Name, Value: cookie.Value}).String())
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/chat/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	defer conn.Close()

	suite.Run("Turn_ShouldPushViewsThenDone", func() {
		req := outbound.ChatRequest{Message: "what can I cook"}
		suite.backend.On("Stream", mock.Anything, req).Return(testutils.NDJSONBody(turnLines...), nil).Once()

		// Act
		require.NoError(suite.T(), conn.WriteJSON(req))
		var views []map[string]interface{}
		for i := 0; i < len(turnLines)+1; i++ {
			require.NoError(suite.T(), conn.SetReadDeadline(time.Now().Add(5*time.Second)))
			var v map[string]interface{}
			require.NoError(suite.T(), conn.ReadJSON(&v))
			views = append(views, v)
		}

		// Assert
		assert.Equal(suite.T(), true, views[0]["started"])
		assert.Equal(suite.T(), false, views[0]["done"])
		final := views[len(views)-1]
		assert.Equal(suite.T(), true, final["done"])
		assert.Equal(suite.T(), true, final["complete"])
		assert.Equal(suite.T(), "Try this", final["final_message"])
		recipes := final["recipes"].([]interface{})
		require.Len(suite.T(), recipes, 1)
		assert.Contains(suite.T(), recipes[0], "usedIngredients")
	})

	suite.Run("BackendFailure_ShouldPushError", func() {
		req := outbound.ChatRequest{Message: "again"}
		suite.backend.On("Stream", mock.Anything, req).
			Return(nil, errors.NewAppError(errors.CodeExternalServiceError, "Chat backend error: 500", "")).Once()

		require.NoError(suite.T(), conn.WriteJSON(req))
		var v map[string]interface{}
		require.NoError(suite.T(), conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(suite.T(), conn.ReadJSON(&v))

		assert.Equal(suite.T(), "Chat backend error: 500", v["error"])
		assert.Equal(suite.T(), true, v["done"])
		assert.Equal(suite.T(), false, v["started"])
	})
}

func (suite *ServerTestSuite) TestOperationalRoutes() {
	suite.Run("Health_ShouldBeAlive", func() {
		rec := suite.do(http.MethodGet, "/health", nil, nil)

		suite.http.StatusCode(rec, http.StatusOK)
		suite.http.SecurityHeaders(rec)
	})

	suite.Run("Ready_ShouldRunChecks", func() {
		rec := suite.do(http.MethodGet, "/ready", nil, nil)

		suite.http.StatusCode(rec, http.StatusOK)
		assert.Contains(suite.T(), rec.Body.String(), `"name":"store"`)
	})

	suite.Run("Metrics_ShouldExposeRequestCounters", func() {
		suite.do(http.MethodGet, "/health", nil, nil)

		rec := suite.do(http.MethodGet, "/metrics", nil, nil)

		suite.http.StatusCode(rec, http.StatusOK)
		assert.Contains(suite.T(), rec.Body.String(), "fridgechef_http_requests_total")
	})

	suite.Run("UnknownRoute_ShouldReturnJSON404", func() {
		rec := suite.do(http.MethodGet, "/nope", nil, nil)

		suite.http.ErrorResponse(rec, http.StatusNotFound, "Route not found")
	})
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
