package maintenance

import (
	"log/slog"
	"net/http"

	"github.com/stackway/edgecert/core/logger"
)

// TriggerPath is the operator endpoint that re-runs maintenance. It is routed
// only on the second server.
const TriggerPath = "/maintenance"

// TriggerHandler exposes Trigger over HTTP. POST only: re-running maintenance
// mutates registry state.
func TriggerHandler(runner *Runner, log *slog.Logger) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("maintenance"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			w.WriteHeader(http.StatusMethodNotAllowed)
			_, _ = w.Write([]byte(`{"error":"method not allowed"}`))
			return
		}

		if err := runner.Trigger(r.Context()); err != nil {
			log.Error("on-demand maintenance failed", logger.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"maintenance failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"maintenance complete"}`))
	})
}
