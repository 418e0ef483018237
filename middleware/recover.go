package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/stackway/edgecert/core/logger"
)

// RecoverConfig configures the panic recovery middleware.
type RecoverConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool

	// Logger for recovered panics (default: slog.Default())
	Logger *slog.Logger

	// ExposeStack includes the stack trace in the error response. Must stay
	// false in production; the stack is always logged regardless.
	ExposeStack bool
}

type panicResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Recover creates a panic recovery middleware. Panics are logged with a stack
// trace and converted to a JSON 500 response. http.ErrAbortHandler is
// re-raised so deliberate connection aborts keep their net/http semantics.
func Recover(cfg RecoverConfig) Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	log := cfg.Logger.With(logger.Component("recover"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				stack := debug.Stack()
				attrs := []any{
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.Stack(),
					slog.Any("panic", rec),
				}
				if id, ok := GetRequestID(r.Context()); ok {
					attrs = append(attrs, logger.RequestID(id))
				}
				log.Error("panic recovered", attrs...)

				resp := panicResponse{
					Error:   "internal server error",
					Details: fmt.Sprintf("%v", rec),
				}
				if cfg.ExposeStack {
					resp.Stack = string(stack)
				}

				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(resp)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
