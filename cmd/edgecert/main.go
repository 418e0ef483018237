package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stackway/edgecert/core/ca"
	"github.com/stackway/edgecert/core/certstore"
	"github.com/stackway/edgecert/core/challenge"
	"github.com/stackway/edgecert/core/config"
	"github.com/stackway/edgecert/core/healthcheck"
	"github.com/stackway/edgecert/core/issue"
	"github.com/stackway/edgecert/core/lifecycle"
	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/maintenance"
	"github.com/stackway/edgecert/core/notify"
	"github.com/stackway/edgecert/core/proxy"
	"github.com/stackway/edgecert/core/registry"
	"github.com/stackway/edgecert/core/renewal"
	"github.com/stackway/edgecert/core/server"
	"github.com/stackway/edgecert/middleware"
	"github.com/stackway/edgecert/pkg/ratelimiter"
)

func main() {
	if err := run(); err != nil {
		slog.Error("edgecert exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg config.App
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.NewFromConfig(cfg.Log).With(logger.Domain(cfg.Domain))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage and registry.
	store, err := certstore.New(certstore.Config{
		CertificateDir: cfg.CertificateDir,
		DBCertDir:      cfg.DBCertDir,
		DBCADir:        cfg.DBCADir,
	}, certstore.WithLogger(log))
	if err != nil {
		return fmt.Errorf("certificate store: %w", err)
	}

	challenges, err := challenge.NewDir(cfg.ChallengeDir, log)
	if err != nil {
		return fmt.Errorf("challenge directory: %w", err)
	}

	reg, err := newRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("server state registry: %w", err)
	}

	// Alerting.
	sinks := []notify.Notifier{notify.NewSlogSink(log)}
	if cfg.Notify.Configured() {
		pm, err := notify.NewPostmarkSink(cfg.Notify)
		if err != nil {
			return fmt.Errorf("postmark sink: %w", err)
		}
		sinks = append(sinks, pm)
	}
	notifier := notify.NewDispatcher(log, sinks...)

	// CA client and issuance workflow.
	caClient, err := ca.NewAPIClient(ca.Config{
		BaseURL:         cfg.CAAPIURL,
		APIKey:          cfg.CAAPIKey,
		DownloadRetries: cfg.DownloadRetries,
	}, ca.WithLogger(log))
	if err != nil {
		return fmt.Errorf("ca client: %w", err)
	}

	issuance, err := issue.NewWorkflow(issue.Config{
		Domain:        cfg.Domain,
		Email:         cfg.Email,
		VerifyTimeout: cfg.VerifyTimeout,
		DownloadDelay: cfg.DownloadDelay,
	}, caClient, store, challenges,
		issue.WithLogger(log), issue.WithNotifier(notifier))
	if err != nil {
		return fmt.Errorf("issuance workflow: %w", err)
	}

	// Lifecycle manager for the two HTTPS listeners.
	manager, err := lifecycle.NewManager(lifecycle.Config{
		DrainTime: cfg.ServerDrainTime,
		Registry:  reg,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("lifecycle manager: %w", err)
	}

	// Rate limiter shared by both HTTPS listeners.
	limiterStore := ratelimiter.NewMemoryStore(ratelimiter.WithMemoryStoreLogger(log))
	limiter, err := ratelimiter.NewBucket(limiterStore, ratelimiter.Config{
		Capacity:       cfg.RateLimitCapacity,
		RefillRate:     cfg.RateLimitRefillRate,
		RefillInterval: cfg.RateLimitInterval,
	})
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(limiterStore.Run(ctx))

	// The HTTP listener serves CA challenges and redirects everything else,
	// and must be up before any issuance attempt.
	httpSrv := server.New(fmt.Sprintf(":%d", cfg.HTTPPort), server.WithLogger(log))
	g.Go(httpSrv.Run(ctx, challenge.NewHandler(challenges, log)))

	// Startup maintenance gates full readiness. The runner is built before
	// the listeners because the second server also exposes it for on-demand
	// triggering.
	maint, err := maintenance.NewRunner(maintenance.Config{
		Domain:       cfg.Domain,
		PollInterval: cfg.ReadyPollInterval,
		WaitTimeout:  cfg.MaintenanceWaitTimeout,
	}, reg, maintenance.WithLogger(log), maintenance.WithNotifier(notifier))
	if err != nil {
		return fmt.Errorf("maintenance runner: %w", err)
	}

	// Cold boot: no usable material means we issue before binding HTTPS.
	material := loadOrIssue(ctx, cfg, store, issuance, log)

	for role, port := range map[lifecycle.Role]int{
		lifecycle.RoleMain:   cfg.PrimaryPort,
		lifecycle.RoleSecond: cfg.SecondaryPort,
	} {
		h := appHandler(cfg, string(role), reg, limiter, maint, log)
		bindOrDegrade(ctx, manager, role, fmt.Sprintf(":%d", port), material, h, notifier, cfg.Domain, log)
	}

	g.Go(maint.Run(ctx))

	// Renewal scheduler. It alerts on failed cycles itself, so its workflow
	// carries no notifier; sharing the cold-boot one would report every
	// failure twice.
	renewIssuance, err := issue.NewWorkflow(issue.Config{
		Domain:        cfg.Domain,
		Email:         cfg.Email,
		VerifyTimeout: cfg.VerifyTimeout,
		DownloadDelay: cfg.DownloadDelay,
	}, caClient, store, challenges, issue.WithLogger(log))
	if err != nil {
		return fmt.Errorf("renewal issuance workflow: %w", err)
	}
	scheduler, err := renewal.NewScheduler(renewal.Config{
		Domain:            cfg.Domain,
		CheckInterval:     cfg.RenewalCheckInterval,
		Threshold:         cfg.RenewalThreshold,
		ReadyPollInterval: cfg.ReadyPollInterval,
		ReadyWaitTimeout:  cfg.ReadyWaitTimeout,
	}, store, renewIssuance, manager, reg,
		renewal.WithLogger(log), renewal.WithNotifier(notifier))
	if err != nil {
		return fmt.Errorf("renewal scheduler: %w", err)
	}
	g.Go(scheduler.Run(ctx))

	log.Info("edgecert started",
		slog.Int("http_port", cfg.HTTPPort),
		slog.Int("primary_port", cfg.PrimaryPort),
		slog.Int("secondary_port", cfg.SecondaryPort))

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if shutdownErr := manager.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("lifecycle shutdown failed", logger.Error(shutdownErr))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("edgecert stopped")
	return nil
}

// newRegistry selects the registry backend from configuration.
func newRegistry(ctx context.Context, cfg config.App) (registry.Registry, error) {
	switch cfg.RegistryBackend {
	case "redis":
		return registry.NewRedisRegistry(ctx, cfg.RedisURL)
	case "file", "":
		return registry.NewFileRegistry(cfg.StatusFile)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.RegistryBackend)
	}
}

// loadOrIssue returns the usable certificate material, running a full
// issuance when the store is empty. Returns nil when no material could be
// obtained; the caller then binds plain HTTP.
func loadOrIssue(ctx context.Context, cfg config.App, store *certstore.Store, issuance *issue.Workflow, log *slog.Logger) *ca.CertificateMaterial {
	has, err := store.HasMaterial()
	if err != nil {
		log.Error("certificate store unreadable", logger.Error(err))
		return nil
	}

	if !has {
		log.Info("no certificate material found, starting cold-boot issuance")
		material, err := issuance.Run(ctx)
		if err != nil {
			log.Error("cold-boot issuance failed, continuing without TLS", logger.Error(err))
			return nil
		}
		return material
	}

	material, err := store.LoadMaterial()
	if err != nil {
		log.Error("failed to load certificate material, continuing without TLS", logger.Error(err))
		return nil
	}
	return &material
}

// bindOrDegrade binds a role with TLS and falls back to plain HTTP when the
// TLS bind fails. A process serving HTTP is degraded but diagnosable; a
// crashed one is neither.
func bindOrDegrade(ctx context.Context, manager *lifecycle.Manager, role lifecycle.Role, addr string, material *ca.CertificateMaterial, h http.Handler, notifier notify.Notifier, domain string, log *slog.Logger) {
	err := manager.Bind(ctx, role, addr, material, h)
	if err == nil {
		return
	}
	log.Error("server bind failed", logger.Role(string(role)), logger.Error(err))

	if material != nil {
		if err := manager.Bind(ctx, role, addr, nil, h); err != nil {
			log.Error("degraded bind failed, role stays down",
				logger.Role(string(role)), logger.Error(err))
			return
		}
	}
	notifier.Notify(ctx, notify.Event{
		Kind:    notify.KindServerDegraded,
		Domain:  domain,
		Message: fmt.Sprintf("%s server running without TLS", role),
		Err:     err,
	})
}

// appHandler assembles the routed handler served by one HTTPS listener.
func appHandler(cfg config.App, role string, reg registry.Registry, limiter ratelimiter.RateLimiter, maint *maintenance.Runner, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(healthcheck.HealthPath, healthcheck.Handler(role, reg, log))
	mux.Handle(healthcheck.TestPath, healthcheck.TestHandler())

	// The trigger is operator-facing and deliberately absent from the main
	// server's surface.
	if role == string(lifecycle.RoleSecond) && maint != nil {
		mux.Handle(maintenance.TriggerPath, maintenance.TriggerHandler(maint, log))
	}

	backend, err := proxy.New(cfg.BackendURL, log)
	if err != nil {
		log.Error("backend proxy disabled", logger.Error(err))
	} else {
		mux.Handle(proxy.PathPrefix, backend)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	skipProbes := func(r *http.Request) bool {
		return r.URL.Path == healthcheck.HealthPath || r.URL.Path == healthcheck.TestPath
	}

	return middleware.Chain(mux,
		middleware.Recover(middleware.RecoverConfig{
			Logger:      log,
			ExposeStack: !cfg.IsProduction(),
		}),
		middleware.RequestID(),
		middleware.ClientIP(),
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger: log,
			Skip:   skipProbes,
		}),
		middleware.SecurityHeadersWithConfig(func() middleware.SecurityHeadersConfig {
			c := middleware.BalancedSecurity
			c.IsDevelopment = !cfg.IsProduction()
			return c
		}()),
		middleware.CORS(cfg.AllowedOrigins...),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:    limiter,
			SetHeaders: true,
			Skip:       skipProbes,
			Logger:     log,
		}),
	)
}
