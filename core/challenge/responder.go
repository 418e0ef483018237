package challenge

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/stackway/edgecert/core/logger"
)

// WellKnownPath is where the certificate authority probes for validation
// files.
const WellKnownPath = "/.well-known/pki-validation/"

// NewHandler returns the plain-HTTP handler for port 80: it serves validation
// files under the well-known path and 301-redirects everything else to the
// HTTPS equivalent of the same host and path.
func NewHandler(dir *Dir, log *slog.Logger) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("responder"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fileName, ok := strings.CutPrefix(r.URL.Path, WellKnownPath); ok && fileName != "" {
			serveChallenge(w, r, dir, fileName, log)
			return
		}

		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
			if strings.Contains(host, ":") {
				// SplitHostPort unbrackets IPv6 literals.
				host = "[" + host + "]"
			}
		}
		http.Redirect(w, r, "https://"+host+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
}

func serveChallenge(w http.ResponseWriter, r *http.Request, dir *Dir, fileName string, log *slog.Logger) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	content, err := dir.Read(fileName)
	if err != nil {
		// A probe for an artifact that was already cleaned up is not
		// actionable; drop the connection instead of serving an error page.
		log.Warn("challenge file unavailable", logger.File(fileName), logger.Error(err))
		panic(http.ErrAbortHandler)
	}

	// The validation probe should learn nothing about the server.
	w.Header().Del("Server")
	w.Header().Del("X-Powered-By")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(content)

	log.Info("challenge served", logger.File(fileName), logger.ClientAddr(r.RemoteAddr))
}
