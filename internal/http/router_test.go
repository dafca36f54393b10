package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/http/handlers"
	"nfl-scoreboard-service/internal/offline"
	"nfl-scoreboard-service/internal/testutil"
	"nfl-scoreboard-service/internal/teststubs"
)

type noopMessenger struct{}

func (noopMessenger) Post(context.Context, offline.Message) {}

func newTestRouter(t *testing.T) (http.Handler, *testutil.StubTransport) {
	t.Helper()
	svc, _ := teststubs.NewService(map[int]*scoreboard.WeekPayload{
		1: testutil.SampleWeek(1, scoreboard.StatePost),
	})
	origin, _ := url.Parse("http://app.example")
	tr := testutil.NewStubTransport()
	tr.Set("http://app.example/", testutil.StubRoute{Status: http.StatusOK, ContentType: "text/html", Body: "<html></html>"})

	h := handlers.NewHandler(svc, nil, nil)
	control := handlers.NewControlHandler(noopMessenger{}, "", nil)
	return NewRouter(h, control, handlers.NewShellHandler(origin, tr, nil)), tr
}

func TestRouterRoutesKnownPaths(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/api/weeks", http.StatusOK},
		{http.MethodGet, "/api/weeks/1", http.StatusOK},
		{http.MethodGet, "/api/weeks/4", http.StatusBadGateway},
		{http.MethodPost, "/api/weeks/4/refresh", http.StatusBadGateway},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodGet, "/api/view", http.StatusOK},
		{http.MethodPut, "/api/view?route=%23/week/1", http.StatusOK},
		{http.MethodPost, "/api/reload", http.StatusOK},
		{http.MethodPost, "/api/control/activate", http.StatusAccepted},
		{http.MethodPost, "/api/control/clear-caches", http.StatusAccepted},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %s expected status %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}
}

func TestRouterForwardsEverythingElseToShell(t *testing.T) {
	router, tr := newTestRouter(t)

	rr := testutil.Serve(router, http.MethodGet, "/", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	if rr.Body.String() != "<html></html>" {
		t.Fatalf("expected shell markup, got %q", rr.Body.String())
	}

	rr = testutil.Serve(router, http.MethodGet, "/does-not-exist", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
	if tr.TotalCalls() != 2 {
		t.Fatalf("expected both requests forwarded, got %d", tr.TotalCalls())
	}
}

func TestRouterWithoutShellReturns404(t *testing.T) {
	svc, _ := teststubs.NewService(nil)
	router := NewRouter(handlers.NewHandler(svc, nil, nil), nil, nil)

	rr := testutil.Serve(router, http.MethodGet, "/does-not-exist", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.Serve(router, http.MethodPost, "/api/control/activate", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
