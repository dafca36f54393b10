package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"nfl-scoreboard-service/internal/logging"
)

// NewShellHandler forwards requests to the application shell origin through transport,
// which is expected to be the offline proxy.
func NewShellHandler(origin *url.URL, transport http.RoundTripper, logger *slog.Logger) http.Handler {
	rp := httputil.NewSingleHostReverseProxy(origin)
	rp.Transport = transport
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		reqLogger := loggerFromContext(r, logger)
		logging.Warn(reqLogger, "shell request failed", logging.FieldURL, r.URL.String(), "error", err)
		writeError(w, r, http.StatusBadGateway, "origin unavailable", reqLogger)
	}
	return rp
}
