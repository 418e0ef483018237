package maintenance_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackway/edgecert/core/maintenance"
	"github.com/stackway/edgecert/core/notify"
	"github.com/stackway/edgecert/core/registry"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureNotifier) Notify(_ context.Context, event notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureNotifier) kinds() []notify.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]notify.Kind, len(c.events))
	for i, e := range c.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func newRegistry(t *testing.T) registry.Registry {
	t.Helper()

	reg, err := registry.NewFileRegistry(filepath.Join(t.TempDir(), "status.json"))
	require.NoError(t, err)
	return reg
}

func serversUp(t *testing.T, reg registry.Registry) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, reg.SetMainServer(ctx, true))
	require.NoError(t, reg.SetSecondServer(ctx, true))
}

func newRunner(t *testing.T, reg registry.Registry, notifier *captureNotifier, opts ...maintenance.Option) *maintenance.Runner {
	t.Helper()

	opts = append(opts, maintenance.WithNotifier(notifier))
	runner, err := maintenance.NewRunner(maintenance.Config{
		Domain:       "example.com",
		PollInterval: 10 * time.Millisecond,
		WaitTimeout:  200 * time.Millisecond,
	}, reg, opts...)
	require.NoError(t, err)
	return runner
}

func TestNewRunner(t *testing.T) {
	t.Parallel()

	_, err := maintenance.NewRunner(maintenance.Config{Domain: "example.com"}, nil)
	require.Error(t, err)
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("records completion once both servers are up", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		serversUp(t, reg)
		notifier := &captureNotifier{}

		var jobRan bool
		runner := newRunner(t, reg, notifier, maintenance.WithJob(func(context.Context) error {
			jobRan = true
			return nil
		}))

		require.NoError(t, runner.Run(context.Background())())

		assert.True(t, jobRan)
		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, status.MaintenanceComplete)
		assert.Equal(t, []notify.Kind{notify.KindMaintenanceComplete}, notifier.kinds())
	})

	t.Run("completes without a job", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		serversUp(t, reg)
		notifier := &captureNotifier{}

		require.NoError(t, newRunner(t, reg, notifier).Run(context.Background())())

		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, status.MaintenanceComplete)
	})

	t.Run("waits for the servers before running", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		notifier := &captureNotifier{}
		runner := newRunner(t, reg, notifier)

		go func() {
			time.Sleep(50 * time.Millisecond)
			serversUp(t, reg)
		}()

		require.NoError(t, runner.Run(context.Background())())
		assert.Equal(t, []notify.Kind{notify.KindMaintenanceComplete}, notifier.kinds())
	})

	t.Run("alerts on timeout but keeps the process alive", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		notifier := &captureNotifier{}
		runner := newRunner(t, reg, notifier)

		// No error: a degraded process must not be taken down by its
		// run group.
		require.NoError(t, runner.Run(context.Background())())

		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.False(t, status.MaintenanceComplete)

		require.Equal(t, []notify.Kind{notify.KindServerDegraded}, notifier.kinds())
		assert.ErrorIs(t, notifier.events[0].Err, maintenance.ErrServersNotUp)
	})

	t.Run("alerts on job failure without recording completion", func(t *testing.T) {
		t.Parallel()

		reg := newRegistry(t)
		serversUp(t, reg)
		notifier := &captureNotifier{}
		jobErr := errors.New("migration failed")
		runner := newRunner(t, reg, notifier, maintenance.WithJob(func(context.Context) error {
			return jobErr
		}))

		require.NoError(t, runner.Run(context.Background())())

		status, err := reg.Read(context.Background())
		require.NoError(t, err)
		assert.False(t, status.MaintenanceComplete)
		assert.Equal(t, []notify.Kind{notify.KindServerDegraded}, notifier.kinds())
	})

	t.Run("returns quietly when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		notifier := &captureNotifier{}
		require.NoError(t, newRunner(t, newRegistry(t), notifier).Run(ctx)())
		assert.Empty(t, notifier.kinds())
	})
}
