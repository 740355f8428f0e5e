package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFlushWriter(t *testing.T) {
	t.Run("PartialLine_ShouldNotFlush", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fw := newFlushWriter(rec)

		_, err := fw.Write([]byte(`{"type":"step_upd`))

		require.NoError(t, err)
		assert.False(t, rec.Flushed)
	})

	t.Run("CompletedLine_ShouldFlush", func(t *testing.T) {
		rec := httptest.NewRecorder()
		fw := newFlushWriter(rec)

		_, _ = fw.Write([]byte(`{"type":"step_upd`))
		_, err := fw.Write([]byte("ate\"}\n"))

		require.NoError(t, err)
		assert.True(t, rec.Flushed)
		assert.Equal(t, "{\"type\":\"step_update\"}\n", rec.Body.String())
	})
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})
	cases := []struct {
		name   string
		origin string
		want   bool
	}{
		{"NoOrigin_ShouldPass", "", true},
		{"ConfiguredOrigin_ShouldPass", "http://localhost:3000", true},
		{"SameHost_ShouldPass", "https://api.example.com", true},
		{"ForeignOrigin_ShouldFail", "https://evil.example", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://api.example.com/api/v1/chat/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			assert.Equal(t, tc.want, check(req))
		})
	}
}

func TestDecode(t *testing.T) {
	h := newResponder(zap.NewNop())

	t.Run("MissingFields_ShouldListEachField", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":0}`))

		appErr := h.decode(httptest.NewRecorder(), req, &inbound.SaveRecipeCommand{}, maxJSONBody)

		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
		fields := errors.ToErrorResponse(appErr, "").Fields
		require.Len(t, fields, 2)
		assert.Equal(t, "id", fields[0].Field)
		assert.Equal(t, "id is required", fields[0].Message)
		assert.Equal(t, "title", fields[1].Field)
	})

	t.Run("OversizedBody_ShouldBeRejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"`+strings.Repeat("a", 64)+`"}`))

		appErr := h.decode(httptest.NewRecorder(), req, &inbound.SaveRecipeCommand{}, 16)

		require.NotNil(t, appErr)
		assert.Equal(t, "Request body too large", appErr.PublicMessage())
	})

	t.Run("WithMessage_ShouldKeepFields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))

		appErr := withMessage(h.decode(httptest.NewRecorder(), req, &credentialsRequest{}, maxJSONBody), "Missing fields")

		resp := errors.ToErrorResponse(appErr, "req-1")
		assert.Equal(t, "Missing fields", resp.Error)
		assert.Len(t, resp.Fields, 2)
		assert.Equal(t, "req-1", resp.RequestID)
	})
}

func TestSocketError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"UpstreamFailure_ShouldKeepMessage", errors.NewAppError(errors.CodeExternalServiceError, "Chat backend error: 502", ""), "Chat backend error: 502"},
		{"InternalFailure_ShouldHideCause", errors.NewDatabaseError("read", stderrors.New("boom")), "Internal server error"},
		{"Cancelled_ShouldSaySo", context.Canceled, "Request cancelled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := socketError(tc.err)

			assert.True(t, view.Done)
			assert.Equal(t, tc.want, view.Error)
			assert.Empty(t, view.Steps)
		})
	}
}
