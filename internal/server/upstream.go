package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"nfl-scoreboard-service/internal/config"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/providers/fixture"
)

// selectUpstream returns the transport that reaches the network. With the fixture source,
// requests for the scoreboard host are answered locally and everything else goes out.
func selectUpstream(cfg config.Config, logger *slog.Logger) http.RoundTripper {
	switch normalizeSourceName(cfg.Scoreboard.Source) {
	case config.SourceESPN:
		return http.DefaultTransport
	case config.SourceFixture:
		return fixtureUpstream(cfg.Scoreboard.URL)
	default:
		logging.Warn(logger, "unknown scoreboard source, falling back to fixture", logging.FieldSource, cfg.Scoreboard.Source)
		return fixtureUpstream(cfg.Scoreboard.URL)
	}
}

func fixtureUpstream(scoreboardURL string) http.RoundTripper {
	host := ""
	if u, err := url.Parse(scoreboardURL); err == nil {
		host = u.Host
	}
	return hostRouter{host: host, matched: fixture.New(), fallback: http.DefaultTransport}
}

// normalizeSourceName returns the lower-cased source, defaulting to espn.
func normalizeSourceName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return config.SourceESPN
	}
	return name
}

// hostRouter sends requests for one host to matched and all others to fallback.
type hostRouter struct {
	host     string
	matched  http.RoundTripper
	fallback http.RoundTripper
}

func (h hostRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host == h.host {
		return h.matched.RoundTrip(req)
	}
	return h.fallback.RoundTrip(req)
}
