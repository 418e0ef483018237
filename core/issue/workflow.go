package issue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stackway/edgecert/core/ca"
	"github.com/stackway/edgecert/core/certstore"
	"github.com/stackway/edgecert/core/challenge"
	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/notify"
)

// Config holds the issuance workflow settings.
type Config struct {
	// Domain is the single domain certificates are issued for.
	Domain string `env:"DOMAIN,required"`

	// Email is the contact address placed in the CSR.
	Email string `env:"EMAIL,required"`

	// VerifyTimeout bounds the CA's domain-control verification call.
	VerifyTimeout time.Duration `env:"CA_VERIFY_TIMEOUT" envDefault:"2m"`

	// DownloadDelay is how long to wait after successful verification
	// before the first download attempt. CAs typically need a moment to
	// sign and publish the certificate after validation.
	DownloadDelay time.Duration `env:"CA_DOWNLOAD_DELAY" envDefault:"10s"`
}

// Workflow orchestrates one issuance from CSR to persisted material.
type Workflow struct {
	cfg        Config
	client     ca.Client
	store      *certstore.Store
	challenges *challenge.Dir
	notifier   notify.Notifier
	logger     *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithNotifier sets the alert sink for issuance outcomes.
func WithNotifier(n notify.Notifier) Option {
	return func(w *Workflow) {
		if n != nil {
			w.notifier = n
		}
	}
}

// WithLogger sets the workflow logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Workflow) {
		if log != nil {
			w.logger = log.With(logger.Component("issue"))
		}
	}
}

// NewWorkflow builds an issuance workflow.
func NewWorkflow(cfg Config, client ca.Client, store *certstore.Store, challenges *challenge.Dir, opts ...Option) (*Workflow, error) {
	if cfg.Domain == "" {
		return nil, ErrMissingDomain
	}
	if client == nil {
		return nil, ErrMissingClient
	}
	if store == nil {
		return nil, ErrMissingStore
	}
	if challenges == nil {
		return nil, ErrMissingChallengeDir
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 2 * time.Minute
	}
	if cfg.DownloadDelay < 0 {
		cfg.DownloadDelay = 0
	}

	w := &Workflow{
		cfg:        cfg,
		client:     client,
		store:      store,
		challenges: challenges,
		notifier:   notify.Noop(),
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run executes one full issuance and returns the persisted material. Any
// failure aborts the run; the certificate store is only written after the
// downloaded material validates against the generated private key.
func (w *Workflow) Run(ctx context.Context) (*ca.CertificateMaterial, error) {
	log := w.logger.With(logger.Domain(w.cfg.Domain))
	log.Info("starting certificate issuance")

	material, err := w.run(ctx, log)
	if err != nil {
		w.notifier.Notify(ctx, notify.Event{
			Kind:   notify.KindIssuanceFailed,
			Domain: w.cfg.Domain,
			Err:    err,
		})
		return nil, err
	}

	w.notifier.Notify(ctx, notify.Event{
		Kind:    notify.KindIssuanceSucceeded,
		Domain:  w.cfg.Domain,
		Message: "certificate issued and stored",
	})
	log.Info("certificate issuance complete")
	return material, nil
}

func (w *Workflow) run(ctx context.Context, log *slog.Logger) (*ca.CertificateMaterial, error) {
	csrPEM, keyPEM, err := ca.GenerateKeyAndRequest(w.cfg.Domain, w.cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("generate key and csr: %w", err)
	}

	handle, err := w.client.CreateCertificate(ctx, csrPEM)
	if err != nil {
		return nil, fmt.Errorf("create certificate order: %w", err)
	}
	log.Info("certificate order created",
		logger.CertificateID(handle.ID), slog.String("status", handle.Status))

	artifact, err := w.client.ExtractHTTPChallenge(handle)
	if err != nil {
		return nil, fmt.Errorf("extract http challenge: %w", err)
	}

	// Stale artifacts from earlier attempts would let the CA validate
	// against outdated content, so the directory is wiped before the new
	// artifact lands.
	if err := w.challenges.Clean(); err != nil {
		return nil, fmt.Errorf("clean challenge directory: %w", err)
	}
	if err := w.challenges.Write(artifact); err != nil {
		return nil, fmt.Errorf("publish challenge artifact: %w", err)
	}
	log.Info("challenge artifact published", logger.File(artifact.FileName))

	verifyCtx, cancel := context.WithTimeout(ctx, w.cfg.VerifyTimeout)
	err = w.client.RequestVerification(verifyCtx, handle.ID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("domain verification: %w", err)
	}
	log.Info("domain verification passed", logger.CertificateID(handle.ID))

	if err := sleep(ctx, w.cfg.DownloadDelay); err != nil {
		return nil, err
	}

	downloaded, err := w.client.Download(ctx, handle.ID)
	if err != nil {
		return nil, fmt.Errorf("download certificate: %w", err)
	}

	material := ca.CertificateMaterial{
		PrivateKey:  keyPEM,
		Certificate: downloaded.Certificate,
		CABundle:    downloaded.CABundle,
	}
	if err := w.store.SaveMaterial(material); err != nil {
		return nil, fmt.Errorf("persist certificate material: %w", err)
	}

	// The challenge already served its purpose. Removal is best effort:
	// a leftover file is cleaned on the next run anyway.
	if err := w.challenges.Remove(artifact.FileName); err != nil {
		log.Warn("failed to remove served challenge artifact",
			logger.File(artifact.FileName), logger.Error(err))
	}

	return &material, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
