package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecorderTracksFetchesAndErrors(t *testing.T) {
	rec := NewRecorder()
	rec.RecordFetch("scoreboard", 10*time.Millisecond, nil)
	rec.RecordFetch("scoreboard", 15*time.Millisecond, errors.New("boom"))

	if got := rec.FetchCalls("scoreboard"); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
	if got := rec.FetchErrors("scoreboard"); got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}

	snap := rec.Snapshot("scoreboard")
	if snap.LastCallLatency != 15*time.Millisecond {
		t.Fatalf("expected last latency to be 15ms, got %s", snap.LastCallLatency)
	}
	if empty := rec.Snapshot("other"); empty.Calls != 0 {
		t.Fatalf("expected empty snapshot for unknown source, got %+v", empty)
	}
}

func TestRecorderTracksStrategiesLifecycleAndTicks(t *testing.T) {
	rec := NewRecorder()
	rec.RecordStrategy("api", "network")
	rec.RecordStrategy("api", "network")
	rec.RecordStrategy("api", "placeholder")
	rec.RecordLifecycle("active")
	rec.RecordLiveTick(time.Millisecond, nil)

	if got := rec.StrategyCount("api", "network"); got != 2 {
		t.Fatalf("expected 2 network answers, got %d", got)
	}
	if got := rec.StrategyCount("api", "placeholder"); got != 1 {
		t.Fatalf("expected 1 placeholder answer, got %d", got)
	}
	if got := rec.LifecycleCount("active"); got != 1 {
		t.Fatalf("expected 1 activation, got %d", got)
	}
	if got := rec.LiveTicks(); got != 1 {
		t.Fatalf("expected 1 live tick, got %d", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.RecordFetch("x", time.Millisecond, nil)
	rec.RecordStrategy("api", "cache")
	rec.RecordLifecycle("installing")
	rec.RecordLiveTick(time.Millisecond, errors.New("x"))
	rec.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	if rec.FetchCalls("x") != 0 || rec.StrategyCount("api", "cache") != 0 || rec.LiveTicks() != 0 || rec.LifecycleCount("x") != 0 {
		t.Fatalf("expected zero values from nil recorder")
	}
}
