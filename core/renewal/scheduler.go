package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackway/edgecert/core/ca"
	"github.com/stackway/edgecert/core/certstore"
	"github.com/stackway/edgecert/core/lifecycle"
	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/notify"
	"github.com/stackway/edgecert/core/registry"
)

// ErrMissingDependency is returned when the scheduler is built without one of
// its required collaborators.
var ErrMissingDependency = errors.New("missing scheduler dependency")

// Issuer is the slice of the issuance workflow the scheduler depends on.
// The scheduler alerts on its own failures, so wire it to a workflow without
// a notifier; otherwise every failed cycle is reported twice.
type Issuer interface {
	Run(ctx context.Context) (*ca.CertificateMaterial, error)
}

// Swapper is the slice of the lifecycle manager the scheduler depends on.
type Swapper interface {
	Swap(ctx context.Context, role lifecycle.Role, material *ca.CertificateMaterial) error
}

// Config holds the renewal scheduler settings.
type Config struct {
	// Domain is the domain under renewal, used in alerts and logs.
	Domain string `env:"DOMAIN,required"`

	// CheckInterval is how often expiry is evaluated.
	CheckInterval time.Duration `env:"RENEWAL_CHECK_INTERVAL" envDefault:"24h"`

	// Threshold is the remaining-lifetime window that triggers renewal.
	Threshold time.Duration `env:"RENEWAL_THRESHOLD" envDefault:"720h"`

	// ReadyPollInterval is the registry polling cadence while waiting for
	// system readiness.
	ReadyPollInterval time.Duration `env:"READY_POLL_INTERVAL" envDefault:"5s"`

	// ReadyWaitTimeout bounds the readiness wait before each check. A
	// system that never becomes ready skips the cycle instead of wedging
	// the scheduler forever.
	ReadyWaitTimeout time.Duration `env:"READY_WAIT_TIMEOUT" envDefault:"10m"`
}

// Scheduler periodically evaluates certificate expiry and renews when due.
type Scheduler struct {
	cfg      Config
	store    *certstore.Store
	issuer   Issuer
	swapper  Swapper
	registry registry.Registry
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithNotifier sets the alert sink for renewal outcomes.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Scheduler) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.logger = log.With(logger.Component("renewal"))
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler builds a renewal scheduler.
func NewScheduler(cfg Config, store *certstore.Store, issuer Issuer, swapper Swapper, reg registry.Registry, opts ...Option) (*Scheduler, error) {
	switch {
	case store == nil:
		return nil, fmt.Errorf("%w: certificate store", ErrMissingDependency)
	case issuer == nil:
		return nil, fmt.Errorf("%w: issuer", ErrMissingDependency)
	case swapper == nil:
		return nil, fmt.Errorf("%w: swapper", ErrMissingDependency)
	case reg == nil:
		return nil, fmt.Errorf("%w: registry", ErrMissingDependency)
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 720 * time.Hour
	}

	s := &Scheduler{
		cfg:      cfg,
		store:    store,
		issuer:   issuer,
		swapper:  swapper,
		registry: reg,
		notifier: notify.Noop(),
		logger:   logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run returns a closure suitable for errgroup.Go. It evaluates once at
// startup, then on every tick, until the context ends.
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		ticker := time.NewTicker(s.cfg.CheckInterval)
		defer ticker.Stop()

		s.check(ctx)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("renewal scheduler stopped")
				return nil
			case <-ticker.C:
				s.check(ctx)
			}
		}
	}
}

// check runs a single renewal cycle. Errors are reported through logs and
// alerts, never returned: one failed cycle must not stop the scheduler.
func (s *Scheduler) check(ctx context.Context) {
	log := s.logger.With(logger.Domain(s.cfg.Domain))

	// Renewal swaps both listeners; doing that while the system is still
	// booting or mid-maintenance would race the startup sequence.
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadyWaitTimeout)
	err := registry.AwaitReady(waitCtx, s.registry, s.cfg.ReadyPollInterval)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("system not ready, skipping renewal cycle", logger.Error(err))
		return
	}

	decision := Evaluate(s.store, s.cfg.Threshold, s.now())
	if !decision.Renew {
		log.Info("certificate renewal not due",
			slog.Time("not_after", decision.NotAfter),
			logger.DaysRemaining(int(decision.Remaining.Hours()/24)))
		return
	}

	log.Info("certificate renewal due",
		slog.String("reason", decision.Reason),
		logger.DaysRemaining(int(decision.Remaining.Hours()/24)))
	if !decision.NotAfter.IsZero() {
		s.notifier.Notify(ctx, notify.Event{
			Kind:    notify.KindCertificateExpiring,
			Domain:  s.cfg.Domain,
			Message: fmt.Sprintf("certificate expires %s, renewing now", decision.NotAfter.Format(time.RFC3339)),
		})
	}

	if err := s.renew(ctx); err != nil {
		log.Error("certificate renewal failed", logger.Error(err))
		return
	}

	log.Info("certificate renewed and deployed")
	s.notifier.Notify(ctx, notify.Event{
		Kind:    notify.KindRenewalSucceeded,
		Domain:  s.cfg.Domain,
		Message: "new certificate deployed on both servers",
	})
}

// renew obtains fresh material and swaps it onto both listeners in order. A
// swap failure aborts the cycle: the failed role keeps its previous listener,
// and the next cycle retries with the already-stored material. Each failure
// path raises exactly one alert.
func (s *Scheduler) renew(ctx context.Context) error {
	material, err := s.issuer.Run(ctx)
	if err != nil {
		s.notifier.Notify(ctx, notify.Event{
			Kind:   notify.KindRenewalFailed,
			Domain: s.cfg.Domain,
			Err:    err,
		})
		return fmt.Errorf("issuance: %w", err)
	}

	for _, role := range lifecycle.Roles() {
		if err := s.swapper.Swap(ctx, role, material); err != nil {
			s.notifier.Notify(ctx, notify.Event{
				Kind:    notify.KindSwapFailed,
				Domain:  s.cfg.Domain,
				Message: fmt.Sprintf("swap failed for %s server", role),
				Err:     err,
			})
			return fmt.Errorf("swap %s server: %w", role, err)
		}
	}
	return nil
}
