package metrics

import (
	"sync"
	"time"
)

type sourceStats struct {
	calls           int
	errors          int
	lastCallLatency time.Duration
}

type strategyKey struct {
	class  string
	result string
}

// Recorder captures lightweight, in-memory metrics and forwards them to OpenTelemetry when configured.
type Recorder struct {
	mu          sync.Mutex
	stats       map[string]*sourceStats
	strategies  map[strategyKey]int
	transitions map[string]int
	liveTicks   int
	otel        *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats:       make(map[string]*sourceStats),
		strategies:  make(map[strategyKey]int),
		transitions: make(map[string]int),
		otel:        otel,
	}
}

// RecordFetch counts an upstream fetch and stores its latency.
func (r *Recorder) RecordFetch(source string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats, ok := r.stats[source]
	if !ok {
		stats = &sourceStats{}
		r.stats[source] = stats
	}
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordFetch(source, duration, err)
	}
}

// RecordStrategy counts how an intercepted request of the given class was answered.
func (r *Recorder) RecordStrategy(class, result string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.strategies[strategyKey{class: class, result: result}]++
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordStrategy(class, result)
	}
}

// RecordLifecycle counts cache proxy lifecycle transitions.
func (r *Recorder) RecordLifecycle(state string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.transitions[state]++
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordLifecycle(state)
	}
}

// RecordLiveTick tracks live refresh cycles and errors.
func (r *Recorder) RecordLiveTick(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.liveTicks++
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordLiveTick(duration, err)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// Snapshot is a copy of the stats recorded for one upstream source.
type Snapshot struct {
	Calls           int
	Errors          int
	LastCallLatency time.Duration
}

// Snapshot returns a copy of the current stats for the source.
func (r *Recorder) Snapshot(source string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[source]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		LastCallLatency: stats.lastCallLatency,
	}
}

// FetchCalls returns the total fetches recorded for a source.
func (r *Recorder) FetchCalls(source string) int {
	return r.Snapshot(source).Calls
}

// FetchErrors returns the failed fetches recorded for a source.
func (r *Recorder) FetchErrors(source string) int {
	return r.Snapshot(source).Errors
}

// StrategyCount returns how often class was answered with result.
func (r *Recorder) StrategyCount(class, result string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.strategies[strategyKey{class: class, result: result}]
}

// LifecycleCount returns how often the proxy entered state.
func (r *Recorder) LifecycleCount(state string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitions[state]
}

// LiveTicks returns the number of live refresh cycles recorded.
func (r *Recorder) LiveTicks() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveTicks
}
