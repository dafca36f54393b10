package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"nfl-scoreboard-service/internal/config"
	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/providers/fixture"
	"nfl-scoreboard-service/internal/testutil"
	"nfl-scoreboard-service/internal/teststubs"
)

func fixtureConfig() config.Config {
	return config.Config{
		Port:         "0",
		Season:       config.SeasonConfig{Year: 2025, Type: 2, Weeks: 3, LoadRetryMax: time.Second},
		Scoreboard:   config.ScoreboardConfig{URL: "http://scores.test/scoreboard", Source: config.SourceFixture, Timeout: time.Second},
		Live:         config.LiveConfig{Interval: time.Hour},
		Connectivity: config.ConnectivityConfig{ProbeURL: "http://scores.test/scoreboard", Interval: time.Hour, Timeout: time.Second},
		Offline:      config.OfflineConfig{OriginURL: "http://scores.test", Prefix: "nfl", Version: "v2", SkipWaiting: true},
		Cache:        config.CacheConfig{Backend: config.BackendMemory},
	}
}

func TestServerLoadsSeasonThroughFixtureUpstream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec, _ := testutil.NewRecorderWithShutdown()
	srv := newServerWithUpstream(fixtureConfig(), nil, fixture.New(), rec)
	t.Cleanup(srv.gracefulShutdown)

	router := srv.Handler()
	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/health", nil), http.StatusOK)

	srv.startBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !srv.app.Season().Loaded() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for season load")
		}
		time.Sleep(5 * time.Millisecond)
	}

	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/ready", nil), http.StatusOK)

	rr := testutil.Serve(router, http.MethodGet, "/api/weeks", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var body struct {
		Weeks []int `json:"weeks"`
	}
	testutil.DecodeJSON(t, rr, &body)
	if len(body.Weeks) != 3 || body.Weeks[0] != 1 || body.Weeks[2] != 3 {
		t.Fatalf("expected weeks 1..3, got %v", body.Weeks)
	}
}

func TestNewConstructsServer(t *testing.T) {
	cfg := fixtureConfig()
	cfg.Metrics = config.MetricsConfig{Enabled: false}
	srv := New(cfg, nil)
	t.Cleanup(srv.gracefulShutdown)
	if srv == nil || srv.Handler() == nil {
		t.Fatalf("expected server with handler")
	}
	if srv.proxy == nil || srv.live == nil || srv.monitor == nil {
		t.Fatalf("expected proxy, live controller and monitor to be wired")
	}
}

func TestBuildHTTPServerWithoutOriginDisablesShell(t *testing.T) {
	cfg := fixtureConfig()
	cfg.Offline.OriginURL = ""
	app, _ := teststubs.NewService(nil)

	srv := buildHTTPServer(cfg, app, nil, nil, nil)
	rr := testutil.Serve(srv.Handler(), http.MethodGet, "/index.html", nil)
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected no shell route, got %d", rr.Code)
	}
}

func TestServerServesWeeksFromService(t *testing.T) {
	app, _ := teststubs.NewService(map[int]*scoreboard.WeekPayload{1: testutil.SampleWeek(1, "post")})
	httpSrv := buildHTTPServer(fixtureConfig(), app, nil, nil, nil)

	rr := testutil.Serve(httpSrv.Handler(), http.MethodGet, "/api/weeks/1", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.Serve(httpSrv.Handler(), http.MethodPost, "/api/control/activate", nil)
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}

func TestGracefulShutdownCallsStopAndShutdown(t *testing.T) {
	app, _ := teststubs.NewService(nil)
	p := &teststubs.StubPoller{}
	httpSrv := &teststubs.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, app, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls.Load() != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls.Load())
	}
	if httpSrv.ShutdownCalls.Load() != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls.Load())
	}
}

func TestGracefulShutdownTimesOutLongRunningShutdown(t *testing.T) {
	app, _ := teststubs.NewService(nil)
	p := &teststubs.StubPoller{}

	blocking := &teststubs.StubHTTPServer{Block: make(chan struct{})}

	original := shutdownTimeout
	shutdownTimeout = 5 * time.Millisecond
	defer func() { shutdownTimeout = original }()

	srv := newServerWithDeps(config.Config{}, nil, app, blocking, p)

	start := time.Now()
	srv.gracefulShutdown()
	elapsed := time.Since(start)

	if blocking.ShutdownCalls.Load() != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", blocking.ShutdownCalls.Load())
	}
	if p.StopCalls.Load() != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls.Load())
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took too long: %s", elapsed)
	}
}

func TestGracefulShutdownContinuesWhenPollerStopErrors(t *testing.T) {
	app, _ := teststubs.NewService(nil)
	p := &teststubs.StubPoller{Err: errors.New("stop failure")}
	httpSrv := &teststubs.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, app, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls.Load() != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls.Load())
	}
	if httpSrv.ShutdownCalls.Load() != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls.Load())
	}
}

func TestServerStartHandlesListenErrorAndStops(t *testing.T) {
	app, _ := teststubs.NewService(nil)
	srv := newServerWithDeps(config.Config{}, nil, app, &teststubs.StubHTTPServer{ListenErr: errors.New("listen failure")}, &teststubs.StubPoller{})

	var wg sync.WaitGroup
	wg.Add(1)
	stopCalled := make(chan struct{})
	stop := func() {
		close(stopCalled)
		wg.Done()
	}

	srv.startServer(stop)

	select {
	case <-stopCalled:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected stop to be called on listen failure")
	}

	wg.Wait()
}

func TestRunLoadsSeasonAndStopsComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, loader := teststubs.NewService(nil)
	loader.Set(1, testutil.SampleWeek(1, "post"))
	plr := &teststubs.StubPoller{}
	httpSrv := &teststubs.StubHTTPServer{ListenErr: http.ErrServerClosed}

	srv := newServerWithDeps(config.Config{Season: config.SeasonConfig{LoadRetryMax: time.Second}}, nil, app, httpSrv, plr)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for !app.Season().Loaded() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for season load")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("run did not return after cancel")
	}

	if plr.StartCalls.Load() != 1 {
		t.Fatalf("expected poller Start called once, got %d", plr.StartCalls.Load())
	}
	if plr.StopCalls.Load() != 1 {
		t.Fatalf("expected poller Stop called once, got %d", plr.StopCalls.Load())
	}
	if httpSrv.ShutdownCalls.Load() != 1 {
		t.Fatalf("expected server Shutdown called once, got %d", httpSrv.ShutdownCalls.Load())
	}
}
