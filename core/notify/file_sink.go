package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileSink saves each event as a text file in a directory. Useful in local
// development to inspect what would have been emailed.
type FileSink struct {
	dir string
}

// NewFileSink creates a file-backed sink. The directory is created on first
// delivery.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// Notify writes the event body to a timestamped file.
func (s *FileSink) Notify(_ context.Context, event Event) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	name := fmt.Sprintf("%s_%s_%s.txt",
		event.At.Format("2006_01_02_150405"),
		safeName(string(event.Kind)),
		safeName(event.Domain))

	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(event.Body()), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

func safeName(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = filenameRegex.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "event"
	}
	return strings.ToLower(s)
}
