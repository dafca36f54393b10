// Package poller runs a function on a fixed interval. A Poller can be stopped and
// started again; each Start begins a fresh ticker.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nfl-scoreboard-service/internal/logging"
)

const defaultInterval = 30 * time.Second

// Func is one polling cycle.
type Func func(ctx context.Context) error

// Options tunes a Poller.
type Options struct {
	// Immediate runs one cycle as soon as the loop starts instead of waiting a full interval.
	Immediate bool
	// OnStop runs once when the loop ends because its context was cancelled, before a new
	// Start can begin. It is not called for Stop and must not call back into the Poller.
	OnStop func()
}

// Poller calls fn on every tick while running.
type Poller struct {
	name     string
	fn       Func
	logger   *slog.Logger
	interval time.Duration
	opts     Options

	startMu sync.Mutex
	running bool
	done    chan struct{}

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the loop.
type Status struct {
	Running             bool
	Cycles              int
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
}

// IsReady reports whether the poller has had a recent success and is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// New constructs a Poller with sane defaults.
func New(name string, fn Func, logger *slog.Logger, interval time.Duration, opts Options) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		name:     name,
		fn:       fn,
		logger:   logger,
		interval: interval,
		opts:     opts,
	}
}

// Interval reports the tick interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start begins polling until the context is cancelled or Stop is called.
// It reports false when the loop is already running.
func (p *Poller) Start(ctx context.Context) bool {
	p.startMu.Lock()
	if p.running {
		p.startMu.Unlock()
		return false
	}
	p.running = true
	done := make(chan struct{})
	p.done = done
	p.startMu.Unlock()
	p.setRunning(true)

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		logging.Info(p.logger, "poller started", "poller", p.name, logging.FieldDurationMS, p.interval.Milliseconds())
		if p.opts.Immediate {
			p.RunOnce(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				p.markStopped(done)
				logging.Info(p.logger, "poller stopped", "poller", p.name)
				return
			case <-done:
				logging.Info(p.logger, "poller stopped", "poller", p.name)
				return
			case <-ticker.C:
				select {
				case <-done:
					continue
				default:
				}
				p.RunOnce(ctx)
			}
		}
	}()
	return true
}

// Stop halts future cycles. A cycle already in progress runs to completion.
// Stop never blocks and may be called from within a cycle.
func (p *Poller) Stop(ctx context.Context) error {
	_ = ctx
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if !p.running {
		return nil
	}
	p.running = false
	close(p.done)
	p.setRunning(false)
	return nil
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	return p.running
}

// markStopped clears the running flag after a context cancellation, unless Stop or a newer
// loop got there first.
func (p *Poller) markStopped(done chan struct{}) {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	if !p.running || p.done != done {
		return
	}
	p.running = false
	close(p.done)
	p.setRunning(false)
	if p.opts.OnStop != nil {
		p.opts.OnStop()
	}
}

// RunOnce executes a single cycle and records its outcome.
func (p *Poller) RunOnce(ctx context.Context) error {
	start := time.Now()
	p.recordAttempt(start)
	err := p.fn(ctx)
	if err != nil {
		logging.Warn(p.logger, "poller cycle failed",
			"poller", p.name,
			"error", err,
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
		)
		p.recordFailure(err, start)
		return err
	}
	p.recordSuccess(start)
	return nil
}

func (p *Poller) setRunning(running bool) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.Running = running
}

func (p *Poller) recordAttempt(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.Cycles++
	p.status.LastAttempt = at
}

func (p *Poller) recordSuccess(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.LastError = ""
	p.status.LastSuccess = at
}

func (p *Poller) recordFailure(err error, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	if err != nil {
		p.status.LastError = err.Error()
	}
	p.status.LastAttempt = at
}

// Status returns a snapshot of the poller's recent health.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}
