package testutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nfl-scoreboard-service/internal/domain/scoreboard"
)

func TestNowAt(t *testing.T) {
	at := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	clock := NowAt(at)
	if !clock().Equal(at) || !clock().Equal(at) {
		t.Fatalf("expected fixed clock at %s", at)
	}
}

func TestFixturesHelper(t *testing.T) {
	week := SampleWeek(2, scoreboard.StateInProgress, scoreboard.StatePost)
	if len(week.Events) != 2 || !week.HasInProgress() {
		t.Fatalf("unexpected week fixture %+v", week)
	}
	ev, ok := week.EventByID("w2-1")
	if !ok || ev.State() != scoreboard.StatePost || !ev.HasTeam("KC") {
		t.Fatalf("unexpected event fixture %s", ev.Raw())
	}
	if ev.StartTime().IsZero() {
		t.Fatalf("expected parseable start time")
	}
}

func TestServeHelpers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	rr := Serve(handler, http.MethodPost, "/test", strings.NewReader("{}"))
	AssertStatus(t, rr, http.StatusCreated)
	var body map[string]bool
	DecodeJSON(t, rr, &body)
	if !body["ok"] {
		t.Fatalf("expected ok=true")
	}

	req := httptest.NewRequest(http.MethodGet, "/req", nil)
	rr2 := ServeRequest(handler, req)
	AssertStatus(t, rr2, http.StatusCreated)

	var again map[string]bool
	ServeJSON(t, handler, http.MethodGet, "/again", http.StatusCreated, &again)
	if !again["ok"] {
		t.Fatalf("expected ok=true from ServeJSON")
	}
}

func TestStubTransport(t *testing.T) {
	tr := NewStubTransport()
	tr.SetJSON("http://upstream/a", `{"events":[]}`)
	client := &http.Client{Transport: tr}

	resp, err := client.Get("http://upstream/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != `{"events":[]}` {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
	}

	resp, err = client.Get("http://upstream/missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown url, got %d", resp.StatusCode)
	}

	tr.SetOffline(true)
	if _, err := client.Get("http://upstream/a"); !errors.Is(err, ErrNetworkDown) {
		t.Fatalf("expected ErrNetworkDown, got %v", err)
	}
	if tr.Calls("http://upstream/a") != 2 || tr.TotalCalls() != 3 {
		t.Fatalf("unexpected call counts %d/%d", tr.Calls("http://upstream/a"), tr.TotalCalls())
	}
}

func TestLoggerAndMetricsHelpers(t *testing.T) {
	logger, buf := NewBufferLogger()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.Debug("hello", "worker", i)
		}(i)
	}
	wg.Wait()
	if got := strings.Count(buf.String(), "msg=hello"); got != 4 {
		t.Fatalf("expected 4 debug lines, got %d in %s", got, buf.String())
	}
	rec, shutdown := NewRecorderWithShutdown()
	if rec == nil || shutdown == nil {
		t.Fatalf("expected recorder and shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil shutdown error, got %v", err)
	}
}
