package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/pkg/async"
)

// Kind classifies a lifecycle event.
type Kind string

const (
	KindIssuanceSucceeded   Kind = "issuance_succeeded"
	KindIssuanceFailed      Kind = "issuance_failed"
	KindRenewalSucceeded    Kind = "renewal_succeeded"
	KindRenewalFailed       Kind = "renewal_failed"
	KindSwapFailed          Kind = "swap_failed"
	KindMaintenanceComplete Kind = "maintenance_complete"
	KindServerDegraded      Kind = "server_degraded"
	KindCertificateExpiring Kind = "certificate_expiring"
)

// Event is a single lifecycle alert.
type Event struct {
	Kind    Kind
	Domain  string
	Message string
	Err     error
	At      time.Time
}

// Subject renders a short one-line summary suitable for an email subject.
func (e Event) Subject() string {
	return fmt.Sprintf("[edgecert] %s: %s", e.Kind, e.Domain)
}

// Body renders the full event text.
func (e Event) Body() string {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	body := fmt.Sprintf("event: %s\ndomain: %s\ntime: %s\n", e.Kind, e.Domain, at.Format(time.RFC3339))
	if e.Message != "" {
		body += "message: " + e.Message + "\n"
	}
	if e.Err != nil {
		body += "error: " + e.Err.Error() + "\n"
	}
	return body
}

// Notifier delivers lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, event Event) error

func (f Func) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Noop discards all events.
func Noop() Notifier {
	return Func(func(context.Context, Event) error { return nil })
}

// Dispatcher fans an event out to multiple sinks without blocking the caller.
// Sink failures are logged and swallowed: alerting is advisory, the workflows
// that raise events must not depend on it.
type Dispatcher struct {
	sinks  []Notifier
	logger *slog.Logger
}

// NewDispatcher builds a dispatcher over the given sinks. A nil logger
// discards delivery failures silently.
func NewDispatcher(log *slog.Logger, sinks ...Notifier) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		sinks:  sinks,
		logger: log.With(logger.Component("notify")),
	}
}

// Dispatch delivers the event to every sink in the background. It returns
// immediately; the returned future can be awaited in tests.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) *async.ExecFuture {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	return async.Exec(context.WithoutCancel(ctx), event, func(ctx context.Context, ev Event) error {
		for _, sink := range d.sinks {
			if err := sink.Notify(ctx, ev); err != nil {
				d.logger.Error("notification delivery failed",
					logger.Event(string(ev.Kind)), logger.Error(err))
			}
		}
		return nil
	})
}

// Notify implements Notifier by dispatching in the background and never
// returning an error, so a Dispatcher can stand in wherever a single sink is
// expected.
func (d *Dispatcher) Notify(ctx context.Context, event Event) error {
	d.Dispatch(ctx, event)
	return nil
}
