package proxy_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/core/proxy"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects urls without scheme or host", func(t *testing.T) {
		t.Parallel()

		_, err := proxy.New("localhost:9000", nil)
		require.Error(t, err)

		_, err = proxy.New("", nil)
		require.Error(t, err)
	})

	t.Run("accepts a full url", func(t *testing.T) {
		t.Parallel()

		handler, err := proxy.New("http://localhost:9000", nil)
		require.NoError(t, err)
		require.NotNil(t, handler)
	})
}

func TestProxy_Forwarding(t *testing.T) {
	t.Parallel()

	t.Run("strips the prefix and forwards", func(t *testing.T) {
		t.Parallel()

		var gotPath, gotQuery string
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			w.WriteHeader(http.StatusCreated)
		}))
		t.Cleanup(backend.Close)

		handler, err := proxy.New(backend.URL, nil)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, proxy.PathPrefix+"api/items?page=2", nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "/api/items", gotPath)
		assert.Equal(t, "page=2", gotQuery)
	})

	t.Run("sets forwarding headers", func(t *testing.T) {
		t.Parallel()

		var gotFor, gotHost string
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotFor = r.Header.Get("X-Forwarded-For")
			gotHost = r.Header.Get("X-Forwarded-Host")
		}))
		t.Cleanup(backend.Close)

		handler, err := proxy.New(backend.URL, nil)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, proxy.PathPrefix, nil)
		req.Host = "edge.example.com"
		req.RemoteAddr = "203.0.113.7:4711"
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.7", gotFor)
		assert.Equal(t, "edge.example.com", gotHost)
	})

	t.Run("answers 502 when the backend is down", func(t *testing.T) {
		t.Parallel()

		backend := httptest.NewServer(http.NotFoundHandler())
		backend.Close()

		handler, err := proxy.New(backend.URL, nil)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, proxy.PathPrefix+"x", nil))

		require.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "bad gateway", body["error"])
	})
}
