package teststubs

import (
	"context"
	"net/http"
	"sync/atomic"

	"nfl-scoreboard-service/internal/poller"
)

// Counter counts calls made from any goroutine.
type Counter struct {
	n atomic.Int32
}

func (c *Counter) add() { c.n.Add(1) }

// Load returns the number of calls so far.
func (c *Counter) Load() int { return int(c.n.Load()) }

// StubPoller stands in for the connectivity monitor.
type StubPoller struct {
	StartCalls Counter
	StopCalls  Counter
	Err        error
	StatusVal  poller.Status
}

func (p *StubPoller) Start(context.Context) { p.StartCalls.add() }

func (p *StubPoller) Stop(context.Context) error {
	p.StopCalls.add()
	return p.Err
}

func (p *StubPoller) Status() poller.Status { return p.StatusVal }

// StubHTTPServer stands in for the HTTP and metrics servers.
// ListenAndServe returns ListenErr immediately; use http.ErrServerClosed for a clean exit.
// When Block is set, Shutdown waits for it to close or for the context to end.
type StubHTTPServer struct {
	AddrVal       string
	HandlerVal    http.Handler
	ListenErr     error
	ShutdownErr   error
	Block         chan struct{}
	ListenCalls   Counter
	ShutdownCalls Counter
}

func (s *StubHTTPServer) ListenAndServe() error {
	s.ListenCalls.add()
	return s.ListenErr
}

func (s *StubHTTPServer) Shutdown(ctx context.Context) error {
	s.ShutdownCalls.add()
	if s.Block == nil {
		return s.ShutdownErr
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.Block:
		return s.ShutdownErr
	}
}

func (s *StubHTTPServer) Addr() string {
	if s.AddrVal == "" {
		return ":0"
	}
	return s.AddrVal
}

func (s *StubHTTPServer) Handler() http.Handler {
	if s.HandlerVal == nil {
		return http.NotFoundHandler()
	}
	return s.HandlerVal
}
