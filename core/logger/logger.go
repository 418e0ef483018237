package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Config holds the logger settings.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format selects the output encoding: text or json.
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// New creates a text logger at info level writing to stderr.
func New() *slog.Logger {
	return NewFromConfig(Config{})
}

// NewFromConfig creates a logger from configuration. Unknown values fall back
// to the defaults rather than erroring: a typo in LOG_LEVEL must not prevent
// the process from starting.
func NewFromConfig(cfg Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
