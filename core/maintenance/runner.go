package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/notify"
	"github.com/stackway/edgecert/core/registry"
)

// ErrServersNotUp is returned when both servers fail to come up within the
// configured wait.
var ErrServersNotUp = errors.New("servers did not come up in time")

// Job is the startup work to run once both servers are live. A nil job means
// there is nothing to do beyond recording completion.
type Job func(ctx context.Context) error

// Config holds the maintenance runner settings.
type Config struct {
	// Domain is used in alerts and logs.
	Domain string `env:"DOMAIN,required"`

	// PollInterval is the registry polling cadence while waiting for the
	// servers.
	PollInterval time.Duration `env:"READY_POLL_INTERVAL" envDefault:"5s"`

	// WaitTimeout bounds the servers-up wait.
	WaitTimeout time.Duration `env:"MAINTENANCE_WAIT_TIMEOUT" envDefault:"10m"`
}

// Runner executes the startup maintenance sequence.
type Runner struct {
	cfg      Config
	registry registry.Registry
	job      Job
	notifier notify.Notifier
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithJob sets the startup job.
func WithJob(job Job) Option {
	return func(r *Runner) { r.job = job }
}

// WithNotifier sets the alert sink.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.logger = log.With(logger.Component("maintenance"))
		}
	}
}

// NewRunner builds a maintenance runner.
func NewRunner(cfg Config, reg registry.Registry, opts ...Option) (*Runner, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Minute
	}

	r := &Runner{
		cfg:      cfg,
		registry: reg,
		notifier: notify.Noop(),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run returns a closure suitable for errgroup.Go. A servers-up timeout is
// alerted but does not return an error: a process running degraded on plain
// HTTP must stay alive, and leaving maintenance incomplete keeps renewal
// correctly gated until an operator intervenes.
func (r *Runner) Run(ctx context.Context) func() error {
	return func() error {
		log := r.logger.With(logger.Domain(r.cfg.Domain))

		waitCtx, cancel := context.WithTimeout(ctx, r.cfg.WaitTimeout)
		err := registry.AwaitServersUp(waitCtx, r.registry, r.cfg.PollInterval)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("servers did not come up, maintenance skipped",
				logger.Duration(r.cfg.WaitTimeout), logger.Error(err))
			r.notifier.Notify(ctx, notify.Event{
				Kind:   notify.KindServerDegraded,
				Domain: r.cfg.Domain,
				Err:    fmt.Errorf("%w: %w", ErrServersNotUp, err),
			})
			return nil
		}

		if err := r.complete(ctx, log); err != nil {
			log.Error("startup maintenance failed", logger.Error(err))
			r.notifier.Notify(ctx, notify.Event{
				Kind:   notify.KindServerDegraded,
				Domain: r.cfg.Domain,
				Err:    err,
			})
		}
		return nil
	}
}

// Trigger re-runs the maintenance job on demand and re-records completion.
// It is reached over a live listener, so there is no servers-up wait, and
// unlike the startup run the outcome is returned to the caller.
func (r *Runner) Trigger(ctx context.Context) error {
	log := r.logger.With(logger.Domain(r.cfg.Domain))
	log.Info("maintenance triggered on demand")
	return r.complete(ctx, log)
}

func (r *Runner) complete(ctx context.Context, log *slog.Logger) error {
	if r.job != nil {
		if err := r.job(ctx); err != nil {
			return fmt.Errorf("maintenance job: %w", err)
		}
	}

	if err := r.registry.SetMaintenanceComplete(ctx, true); err != nil {
		return fmt.Errorf("record maintenance completion: %w", err)
	}

	log.Info("maintenance complete, system ready")
	r.notifier.Notify(ctx, notify.Event{
		Kind:    notify.KindMaintenanceComplete,
		Domain:  r.cfg.Domain,
		Message: "maintenance finished, system fully ready",
	})
	return nil
}
