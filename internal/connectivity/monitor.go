// Package connectivity tracks whether the upstream network is reachable and notifies
// subscribers on every online/offline transition.
package connectivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/poller"
)

const defaultTimeout = 5 * time.Second

// ErrOffline is reported by a probe cycle that could not reach the network.
var ErrOffline = errors.New("connectivity: offline")

// Handler receives the new state after a transition.
type Handler = func(online bool)

// Monitor probes a URL on an interval. It starts out online.
type Monitor struct {
	probeURL string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	poller   *poller.Poller

	mu       sync.RWMutex
	online   bool
	handlers []Handler
}

// New constructs a Monitor. transport should reach the network directly.
func New(probeURL string, transport http.RoundTripper, interval, timeout time.Duration, logger *slog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	m := &Monitor{
		probeURL: probeURL,
		client:   &http.Client{Transport: transport, Timeout: timeout},
		timeout:  timeout,
		logger:   logger,
		online:   true,
	}
	m.poller = poller.New("connectivity", m.cycle, logger, interval, poller.Options{Immediate: true})
	return m
}

// Start begins periodic probing.
func (m *Monitor) Start(ctx context.Context) {
	m.poller.Start(ctx)
}

// Stop halts probing.
func (m *Monitor) Stop(ctx context.Context) error {
	return m.poller.Stop(ctx)
}

// Status exposes the probe loop health.
func (m *Monitor) Status() poller.Status {
	return m.poller.Status()
}

// Online reports the last known state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// OnChange registers a handler. Handlers run synchronously in registration order.
func (m *Monitor) OnChange(h Handler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Set forces the state and notifies handlers when it changes. It reports whether it changed.
func (m *Monitor) Set(online bool) bool {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online
	handlers := append([]Handler(nil), m.handlers...)
	m.mu.Unlock()

	if online {
		logging.Info(m.logger, "network back online")
	} else {
		logging.Warn(m.logger, "network went offline")
	}
	for _, h := range handlers {
		h(online)
	}
	return true
}

// Probe checks reachability once without changing state. Any HTTP response counts as online.
func (m *Monitor) Probe(ctx context.Context) error {
	if m.probeURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}
	resp.Body.Close()
	return nil
}

func (m *Monitor) cycle(ctx context.Context) error {
	err := m.Probe(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.Set(err == nil)
	return err
}
