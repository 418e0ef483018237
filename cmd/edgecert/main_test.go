package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/core/config"
	"github.com/stackway/edgecert/core/lifecycle"
	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/maintenance"
	"github.com/stackway/edgecert/core/registry"
	"github.com/stackway/edgecert/pkg/ratelimiter"
)

func TestAppHandler_MaintenanceRoute(t *testing.T) {
	t.Parallel()

	cfg := config.App{Domain: "example.com"}

	reg, err := registry.NewFileRegistry(filepath.Join(t.TempDir(), "status.json"))
	require.NoError(t, err)

	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
		Capacity:       100,
		RefillRate:     100,
		RefillInterval: time.Minute,
	})
	require.NoError(t, err)

	maint, err := maintenance.NewRunner(maintenance.Config{Domain: cfg.Domain}, reg)
	require.NoError(t, err)

	t.Run("second server triggers maintenance", func(t *testing.T) {
		t.Parallel()

		h := appHandler(cfg, string(lifecycle.RoleSecond), reg, limiter, maint, logger.Discard())

		req := httptest.NewRequest(http.MethodPost, maintenance.TriggerPath, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, status.MaintenanceComplete)
	})

	t.Run("main server does not expose the trigger", func(t *testing.T) {
		t.Parallel()

		h := appHandler(cfg, string(lifecycle.RoleMain), reg, limiter, maint, logger.Discard())

		req := httptest.NewRequest(http.MethodPost, maintenance.TriggerPath, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
