package notify

import (
	"context"
	"log/slog"

	"github.com/stackway/edgecert/core/logger"
)

// SlogSink writes events to a structured logger. It is the default sink in
// development and the fallback when no email credentials are configured.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a logger-backed sink.
func NewSlogSink(log *slog.Logger) *SlogSink {
	if log == nil {
		log = logger.Discard()
	}
	return &SlogSink{logger: log.With(logger.Component("notify"))}
}

// Notify logs the event at a level matching its severity.
func (s *SlogSink) Notify(_ context.Context, event Event) error {
	attrs := []any{
		logger.Event(string(event.Kind)),
		logger.Domain(event.Domain),
	}
	if event.Message != "" {
		attrs = append(attrs, slog.String("message", event.Message))
	}
	if event.Err != nil {
		attrs = append(attrs, logger.Error(event.Err))
		s.logger.Error("lifecycle alert", attrs...)
		return nil
	}
	s.logger.Info("lifecycle alert", attrs...)
	return nil
}
