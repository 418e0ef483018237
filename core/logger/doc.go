// Package logger provides slog attribute helpers shared by all edgecert
// components. Helpers follow the empty Attr pattern for nil safety, so calls
// like log.Info("msg", logger.Error(err)) need no explicit nil checks.
package logger
