package certstore

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stackway/edgecert/core/logger"
)

// Canonical file names under the certificate directory.
const (
	FilePrivateKey  = "private-key.pem"
	FileCertificate = "certificate.pem"
	FileCABundle    = "ca_bundle.pem"
	FileFullChain   = "fullchain.pem"
)

// Mirrored file names for the downstream database consumer.
const (
	DBFilePrivateKey  = "private.key"
	DBFileCertificate = "public.crt"
	DBFileCACert      = "myCA.crt"
)

// Config holds the certificate store directory layout.
type Config struct {
	CertificateDir string `env:"CERTIFICATE_DIR" envDefault:"./certs"`
	DBCertDir      string `env:"DB_CERT_DIR" envDefault:"./certs/db"`
	DBCADir        string `env:"DB_CA_DIR" envDefault:"./certs/db"`
}

// Store provides verified filesystem persistence for certificate material.
type Store struct {
	dir       string
	dbCertDir string
	dbCADir   string
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for store operations.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.logger = log.With(logger.Component("certstore"))
		}
	}
}

// New creates a certificate store rooted at the configured directories.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.CertificateDir == "" {
		return nil, fmt.Errorf("%w: certificate directory is required", ErrStore)
	}

	s := &Store{
		dir:       cfg.CertificateDir,
		dbCertDir: cfg.DBCertDir,
		dbCADir:   cfg.DBCADir,
		logger:    logger.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Dir returns the primary certificate directory.
func (s *Store) Dir() string {
	return s.dir
}

// Exists checks presence of a named artifact in the primary directory.
// Failures other than absence propagate as ErrStore.
func (s *Store) Exists(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, name))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("%w: stat %s: %w", ErrStore, name, err)
	}
}

// Save writes content under the primary directory and verifies it read back
// byte-identical.
func (s *Store) Save(name string, content []byte) error {
	return s.SaveTo(s.dir, name, content)
}

// SaveTo writes content under an arbitrary directory, creating it recursively
// if needed. The write goes through a temporary file and rename, then the
// final file is read back and byte-compared to the input; a mismatch fails
// with ErrIntegrity and the caller must not proceed with the material.
func (s *Store) SaveTo(dir, name string, content []byte) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrStore, dir, err)
	}

	path := filepath.Join(dir, name)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStore, name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("%w: save %s: %w", ErrStore, name, err)
	}

	readBack, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: verify %s: %w", ErrStore, name, err)
	}
	if !bytes.Equal(readBack, content) {
		return fmt.Errorf("%w: %s", ErrIntegrity, name)
	}

	s.logger.Debug("artifact saved", logger.File(name), slog.String("dir", dir))
	return nil
}

// Load returns the content of a named artifact from the primary directory.
// Absence is reported as ErrNotFound; other I/O errors as ErrStore.
func (s *Store) Load(name string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.dir, name))
	switch {
	case err == nil:
		return content, nil
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	default:
		return nil, fmt.Errorf("%w: read %s: %w", ErrStore, name, err)
	}
}
