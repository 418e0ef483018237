package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/stackway/edgecert/core/logger"
)

// PathPrefix is the route prefix forwarded to the backend.
const PathPrefix = "/server/"

// New builds a reverse proxy that strips the /server prefix and forwards the
// remainder to the backend URL.
func New(backendURL string, log *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend url: %q must include scheme and host", backendURL)
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("proxy"))

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.URL.Path = "/" + strings.TrimPrefix(pr.In.URL.Path, PathPrefix)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("backend request failed",
				logger.Path(r.URL.Path), logger.Error(err))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"bad gateway"}`))
		},
	}
	return rp, nil
}
