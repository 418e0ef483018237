package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileRegistry stores the status record in a single JSON file. Writes within
// one process are serialized by a mutex and go through a temporary file and
// rename, so readers never observe a torn record. Across processes the
// semantics are last-writer-wins; deployments where sibling processes write
// concurrently should use the Redis backend instead.
type FileRegistry struct {
	mu   sync.Mutex
	path string
}

var _ Registry = (*FileRegistry)(nil)

// NewFileRegistry creates a file-backed registry at the given path. The file
// is created lazily on first write; a missing file reads as all-false
// defaults.
func NewFileRegistry(path string) (*FileRegistry, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: status file path is required", ErrRegistry)
	}
	return &FileRegistry{path: path}, nil
}

// Read returns the current status, or defaults when the file is absent.
func (f *FileRegistry) Read(ctx context.Context) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileRegistry) read() (Status, error) {
	var status Status

	content, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("%w: read %s: %w", ErrRegistry, f.path, err)
	}

	if err := json.Unmarshal(content, &status); err != nil {
		return status, fmt.Errorf("%w: parse %s: %w", ErrRegistry, f.path, err)
	}
	return status, nil
}

func (f *FileRegistry) write(status Status) error {
	content, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode status: %w", ErrRegistry, err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrRegistry, f.path, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: save %s: %w", ErrRegistry, f.path, err)
	}
	return nil
}

func (f *FileRegistry) update(mutate func(*Status)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	status, err := f.read()
	if err != nil {
		return err
	}
	mutate(&status)
	return f.write(status)
}

// SetMainServer records whether the main server is up.
func (f *FileRegistry) SetMainServer(ctx context.Context, up bool) error {
	return f.update(func(s *Status) { s.MainServer = up })
}

// SetSecondServer records whether the second server is up.
func (f *FileRegistry) SetSecondServer(ctx context.Context, up bool) error {
	return f.update(func(s *Status) { s.SecondServer = up })
}

// SetMaintenanceComplete records whether maintenance has finished.
func (f *FileRegistry) SetMaintenanceComplete(ctx context.Context, done bool) error {
	return f.update(func(s *Status) { s.MaintenanceComplete = done })
}
