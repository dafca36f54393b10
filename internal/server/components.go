package server

import (
	"context"
	"log/slog"
	"net/http"

	"nfl-scoreboard-service/internal/cachestore"
	"nfl-scoreboard-service/internal/config"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/metrics"
	"nfl-scoreboard-service/internal/offline"
)

// buildStorage opens the configured cache backend, falling back to memory so the
// service still runs when the backend is unreachable.
func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) cachestore.Storage {
	storage, err := cachestore.New(ctx, cfg.Cache, cfg.Offline.Prefix)
	if err != nil {
		logging.Warn(logger, "cache backend unavailable, using memory storage",
			"backend", cfg.Cache.Backend,
			"error", err,
		)
		return cachestore.NewMemoryStorage()
	}
	return storage
}

// buildProxy assembles the offline proxy from config and the optional manifest.
func buildProxy(cfg config.Config, upstream http.RoundTripper, storage cachestore.Storage, logger *slog.Logger, recorder *metrics.Recorder) *offline.Proxy {
	manifest, err := config.LoadManifest(cfg.Offline.ManifestPath)
	if err != nil {
		logging.Warn(logger, "offline manifest ignored", "path", cfg.Offline.ManifestPath, "error", err)
		manifest = config.Manifest{}
	}
	opts, err := offline.OptionsFromConfig(cfg.Offline, manifest, cfg.Scoreboard.URL)
	if err != nil {
		logging.Warn(logger, "offline options invalid, using defaults", "error", err)
		opts = offline.DefaultOptions(cfg.Offline.OriginURL, cfg.Scoreboard.URL)
	}
	return offline.New(upstream, storage, opts, logger, recorder)
}
