package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/middleware"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	t.Run("converts a panic to a json 500", func(t *testing.T) {
		t.Parallel()

		handler := middleware.Recover(middleware.RecoverConfig{})(panicking)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "internal server error", body["error"])
		assert.Equal(t, "boom", body["details"])
		assert.Empty(t, body["stack"])
	})

	t.Run("exposes the stack only when configured", func(t *testing.T) {
		t.Parallel()

		handler := middleware.Recover(middleware.RecoverConfig{ExposeStack: true})(panicking)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["stack"], "goroutine")
	})

	t.Run("re-raises deliberate aborts", func(t *testing.T) {
		t.Parallel()

		handler := middleware.Recover(middleware.RecoverConfig{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})

	t.Run("passes clean requests through untouched", func(t *testing.T) {
		t.Parallel()

		handler := middleware.Recover(middleware.RecoverConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})
}
