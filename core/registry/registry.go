package registry

import (
	"context"
	"fmt"
	"time"
)

// Status is the persisted readiness record. Absent backends read as the
// all-false zero value.
type Status struct {
	MainServer          bool `json:"mainServer"`
	SecondServer        bool `json:"secondServer"`
	MaintenanceComplete bool `json:"maintenanceComplete"`
}

// Ready reports whether both servers are live and maintenance has completed.
func (s Status) Ready() bool {
	return s.MainServer && s.SecondServer && s.MaintenanceComplete
}

// ServersUp reports whether both servers are live, regardless of maintenance.
func (s Status) ServersUp() bool {
	return s.MainServer && s.SecondServer
}

// Registry is the narrow state-store interface shared by all workflows.
// Writers are infrequent and sequential in practice; each setter performs a
// read-modify-write of its own field only.
type Registry interface {
	Read(ctx context.Context) (Status, error)
	SetMainServer(ctx context.Context, up bool) error
	SetSecondServer(ctx context.Context, up bool) error
	SetMaintenanceComplete(ctx context.Context, done bool) error
}

// Await polls the registry until the condition holds or the context ends.
// Pass a context with deadline for bounded waits; boot-time callers should
// always bound it to avoid a wedged process.
func Await(ctx context.Context, r Registry, poll time.Duration, cond func(Status) bool) error {
	if poll <= 0 {
		poll = 5 * time.Second
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		status, err := r.Read(ctx)
		if err != nil {
			return err
		}
		if cond(status) {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrAwaitTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// AwaitReady waits for full readiness: both servers up and maintenance
// complete.
func AwaitReady(ctx context.Context, r Registry, poll time.Duration) error {
	return Await(ctx, r, poll, Status.Ready)
}

// AwaitServersUp waits for both servers to be live.
func AwaitServersUp(ctx context.Context, r Registry, poll time.Duration) error {
	return Await(ctx, r, poll, Status.ServersUp)
}
