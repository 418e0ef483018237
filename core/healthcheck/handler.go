package healthcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/registry"
)

// Paths served by this package. Rate limiting must skip both.
const (
	HealthPath = "/health"
	TestPath   = "/test"
)

type healthResponse struct {
	Status              string `json:"status"`
	Role                string `json:"role"`
	UptimeSeconds       int64  `json:"uptimeSeconds"`
	MainServer          bool   `json:"mainServer"`
	SecondServer        bool   `json:"secondServer"`
	MaintenanceComplete bool   `json:"maintenanceComplete"`
}

// Handler reports process health and the registry's view of the system. A
// registry read failure degrades to status "unknown" with 200: the process
// itself is demonstrably alive, and probes must not flap on a status-file
// hiccup.
func Handler(role string, reg registry.Registry, log *slog.Logger) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	started := time.Now()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:        "ok",
			Role:          role,
			UptimeSeconds: int64(time.Since(started).Seconds()),
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status, err := reg.Read(ctx)
		if err != nil {
			log.Warn("health check could not read registry", logger.Error(err))
			resp.Status = "unknown"
		} else {
			resp.MainServer = status.MainServer
			resp.SecondServer = status.SecondServer
			resp.MaintenanceComplete = status.MaintenanceComplete
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// TestHandler is the bare liveness probe.
func TestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
