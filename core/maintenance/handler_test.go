package maintenance_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/core/maintenance"
	"github.com/stackway/edgecert/core/notify"
)

func TestRunner_Trigger(t *testing.T) {
	t.Parallel()

	t.Run("re-runs the job and re-records completion", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		notifier := &captureNotifier{}

		var jobRuns int
		runner := newRunner(t, reg, notifier, maintenance.WithJob(func(context.Context) error {
			jobRuns++
			return nil
		}))

		require.NoError(t, runner.Trigger(context.Background()))

		assert.Equal(t, 1, jobRuns)
		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, status.MaintenanceComplete)
		assert.Equal(t, []notify.Kind{notify.KindMaintenanceComplete}, notifier.kinds())
	})

	t.Run("returns the job error without recording completion", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		notifier := &captureNotifier{}
		jobErr := errors.New("migration failed")
		runner := newRunner(t, reg, notifier, maintenance.WithJob(func(context.Context) error {
			return jobErr
		}))

		require.ErrorIs(t, runner.Trigger(context.Background()), jobErr)

		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.False(t, status.MaintenanceComplete)
		assert.Empty(t, notifier.kinds())
	})
}

func TestTriggerHandler(t *testing.T) {
	t.Parallel()

	t.Run("runs maintenance on POST", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		handler := maintenance.TriggerHandler(newRunner(t, reg, &captureNotifier{}), nil)

		req := httptest.NewRequest(http.MethodPost, maintenance.TriggerPath, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"maintenance complete"}`, rec.Body.String())

		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, status.MaintenanceComplete)
	})

	t.Run("rejects everything but POST", func(t *testing.T) {
		t.Parallel()

		handler := maintenance.TriggerHandler(newRunner(t, newRegistry(t), &captureNotifier{}), nil)

		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, maintenance.TriggerPath, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
			assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"), method)
		}
	})

	t.Run("reports a failed run", func(t *testing.T) {
		t.Parallel()

		runner := newRunner(t, newRegistry(t), &captureNotifier{},
			maintenance.WithJob(func(context.Context) error {
				return errors.New("migration failed")
			}))
		handler := maintenance.TriggerHandler(runner, nil)

		req := httptest.NewRequest(http.MethodPost, maintenance.TriggerPath, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"maintenance failed"}`, rec.Body.String())
	})
}
