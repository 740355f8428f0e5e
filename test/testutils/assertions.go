// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(rec *httptest.ResponseRecorder, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, rec, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, rec.Code, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(rec *httptest.ResponseRecorder, target interface{}) {
	require.NotNil(ha.t, rec, "Response should not be nil")

	contentType := rec.Header().Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	err := json.Unmarshal(rec.Body.Bytes(), target)
	require.NoError(ha.t, err, "Response should be valid JSON: %s", rec.Body.String())
}

// ErrorResponse asserts the status and the exact user-facing error text
func (ha *HTTPAssertions) ErrorResponse(rec *httptest.ResponseRecorder, expectedCode int, expectedMessage string) {
	ha.StatusCode(rec, expectedCode, rec.Body.String())

	var body map[string]interface{}
	ha.JSONResponse(rec, &body)
	assert.Equal(ha.t, expectedMessage, body["error"])
}

// SessionCookie returns the named cookie set by the response
func (ha *HTTPAssertions) SessionCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	require.Failf(ha.t, "missing cookie", "Response should set cookie %s", name)
	return nil
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(rec *httptest.ResponseRecorder) {
	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy"} {
		assert.NotEmpty(ha.t, rec.Header().Get(header), "Response should have header %s", header)
	}
}

// SameRecipe asserts that a stored recipe carries the fields it was saved with
func SameRecipe(t *testing.T, cmd inbound.SaveRecipeCommand, got inbound.SavedRecipeDTO) {
	assert.Equal(t, cmd.ID, got.ExternalID)
	assert.Equal(t, cmd.Title, got.Title)
	assert.Equal(t, cmd.Image, got.Image)
	assert.Equal(t, cmd.ReadyInMinutes, got.ReadyInMinutes)
	assert.Equal(t, cmd.PreparationMinutes, got.PreparationMinutes)
	assert.Equal(t, cmd.CookingMinutes, got.CookingMinutes)
	assert.Equal(t, cmd.Nutrition, got.Nutrition)
	assert.Equal(t, cmd.Summary, got.Summary)
	assert.Equal(t, len(cmd.Ingredients), len(got.Ingredients))
	for i := range cmd.Ingredients {
		assert.Equal(t, cmd.Ingredients[i], got.Ingredients[i])
	}
	assert.Equal(t, len(cmd.AnalyzedInstructions), len(got.AnalyzedInstructions))
	for i := range cmd.AnalyzedInstructions {
		assert.Equal(t, cmd.AnalyzedInstructions[i], got.AnalyzedInstructions[i])
	}
}
