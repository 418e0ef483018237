package challenge

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stackway/edgecert/core/ca"
	"github.com/stackway/edgecert/core/logger"
)

// Dir is the served challenge directory. At most one live artifact should
// exist per domain; Clean removes leftovers from previous attempts before a
// new one is written.
type Dir struct {
	path   string
	logger *slog.Logger
}

// NewDir creates the challenge directory handler, creating the directory if
// needed.
func NewDir(path string, log *slog.Logger) (*Dir, error) {
	if path == "" {
		return nil, ErrDirRequired
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create challenge directory: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Dir{path: path, logger: log.With(logger.Component("challenge"))}, nil
}

// Path returns the directory location.
func (d *Dir) Path() string {
	return d.path
}

// Clean deletes every file in the challenge directory. A stale artifact from
// a failed attempt must not be servable during a new attempt.
func (d *Dir) Clean() error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("failed to list challenge directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove stale challenge %s: %w", entry.Name(), err)
		}
		d.logger.Info("stale challenge removed", logger.File(entry.Name()))
	}
	return nil
}

// Write stores the artifact and verifies it reads back byte-identical, the
// same integrity discipline as the certificate store.
func (d *Dir) Write(art *ca.ChallengeArtifact) error {
	// The file name comes from the CA response; strip any path components
	// so the artifact cannot land outside the served directory.
	path := filepath.Join(d.path, filepath.Base(art.FileName))
	content := []byte(art.FileContent)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write challenge %s: %w", art.FileName, err)
	}

	readBack, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to verify challenge %s: %w", art.FileName, err)
	}
	if !bytes.Equal(readBack, content) {
		return fmt.Errorf("%w: %s", ErrIntegrity, art.FileName)
	}

	return nil
}

// Remove deletes a single artifact. Absence is not an error; issuance cleanup
// is best-effort.
func (d *Dir) Remove(fileName string) error {
	if err := os.Remove(filepath.Join(d.path, filepath.Base(fileName))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove challenge %s: %w", fileName, err)
	}
	return nil
}

// Read returns the raw content of a served artifact.
func (d *Dir) Read(fileName string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.path, filepath.Base(fileName)))
}
