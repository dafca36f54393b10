package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	appscoreboard "nfl-scoreboard-service/internal/app/scoreboard"
	"nfl-scoreboard-service/internal/cachestore"
	"nfl-scoreboard-service/internal/config"
	"nfl-scoreboard-service/internal/connectivity"
	"nfl-scoreboard-service/internal/fetcher"
	httpserver "nfl-scoreboard-service/internal/http"
	"nfl-scoreboard-service/internal/http/handlers"
	"nfl-scoreboard-service/internal/http/middleware"
	"nfl-scoreboard-service/internal/live"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/metrics"
	"nfl-scoreboard-service/internal/offline"
	"nfl-scoreboard-service/internal/season"
	"nfl-scoreboard-service/internal/store"
	"nfl-scoreboard-service/internal/view"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	storage       cachestore.Storage
	proxy         *offline.Proxy
	app           *appscoreboard.Service
	live          *live.Controller
	monitor       Poller
	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error
}

// New constructs a server wired to the configured scoreboard source.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithUpstream(cfg, logger, selectUpstream(cfg, logger), nil)
}

// newServerWithUpstream builds every component around upstream, the transport that
// reaches the network. A nil recorder sets up telemetry from cfg.
func newServerWithUpstream(cfg config.Config, logger *slog.Logger, upstream http.RoundTripper, recorder *metrics.Recorder) *Server {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	storage := buildStorage(context.Background(), cfg, logger)
	proxy := buildProxy(cfg, upstream, storage, logger, recorder)

	client := fetcher.NewClient(fetcher.Config{
		BaseURL:    cfg.Scoreboard.URL,
		SeasonType: cfg.Season.Type,
		Year:       cfg.Season.Year,
		HTTPClient: &http.Client{Transport: proxy, Timeout: cfg.Scoreboard.Timeout},
	})
	weeks := fetcher.New(client, normalizeSourceName(cfg.Scoreboard.Source), store.NewMemoryStore(), cfg.Season.Weeks, logger, recorder)

	s := season.New()
	renderer := view.NewRenderer(s)
	monitor := connectivity.New(cfg.Connectivity.ProbeURL, upstream, cfg.Connectivity.Interval, cfg.Connectivity.Timeout, logger)
	ctrl := live.New(s, weeks, monitor, renderer, cfg.Live.Interval, logger, recorder)
	app := appscoreboard.NewService(s, weeks, ctrl, monitor, renderer, logger)

	httpSrv := buildHTTPServer(cfg, app, proxy, logger, recorder)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		storage:       storage,
		proxy:         proxy,
		app:           app,
		live:          ctrl,
		monitor:       monitor,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, app *appscoreboard.Service, httpSrv httpServer, monitor Poller) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		app:        app,
		httpServer: httpSrv,
		monitor:    monitor,
	}
}

func buildHTTPServer(cfg config.Config, app *appscoreboard.Service, proxy *offline.Proxy, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	var (
		state     handlers.ProxyState
		messenger handlers.Messenger
		transport http.RoundTripper = http.DefaultTransport
	)
	if proxy != nil {
		state, messenger, transport = proxy, proxy, proxy
	}
	handler := handlers.NewHandler(app, state, logger)
	control := handlers.NewControlHandler(messenger, cfg.Offline.AdminToken, logger)

	var shell http.Handler
	if origin, err := url.Parse(cfg.Offline.OriginURL); err == nil && origin.Host != "" {
		shell = handlers.NewShellHandler(origin, transport, logger)
	} else {
		logging.Warn(logger, "application shell disabled", logging.FieldURL, cfg.Offline.OriginURL)
	}

	router := httpserver.NewRouter(handler, control, shell)
	wrapped := middleware.LoggingMiddleware(logger, recorder, router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      wrapped,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeoutFor(cfg.Scoreboard.Timeout),
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the servers and background work, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	s.startBackground(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

// startBackground subscribes to connectivity, starts probing, then installs the offline
// proxy and loads the season in the background, retrying a total load failure.
func (s *Server) startBackground(ctx context.Context) {
	if s.app != nil {
		s.app.Watch(ctx)
	}
	if s.monitor != nil {
		s.monitor.Start(ctx)
	}
	go func() {
		if s.proxy != nil {
			if err := s.proxy.Install(ctx); err != nil && !errors.Is(err, offline.ErrAlreadyInstalled) {
				logging.Warn(s.logger, "offline proxy install failed", "error", err)
			}
		}
		if s.app == nil {
			return
		}
		policy := appscoreboard.DefaultRetryPolicy(s.cfg.Season.LoadRetryMax)
		if err := s.app.LoadWithRetry(ctx, policy); err != nil && ctx.Err() == nil {
			logging.Warn(s.logger, "season unavailable, waiting for reload", "error", err)
		}
	}()
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	if s.live != nil {
		s.live.Stop()
	}

	if s.monitor != nil {
		if err := s.monitor.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop connectivity monitor", err)
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			logging.Warn(s.logger, "cache storage close failed", "error", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "error", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
