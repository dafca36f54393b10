// Package offline implements a persistent, versioned caching proxy as an http.RoundTripper.
//
// Once active, every GET is classified as an API call (network-first with a cached or
// placeholder fallback), a same-origin navigation (cached application shell) or a
// same-origin static asset (cache-first). Everything else passes through untouched.
package offline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"nfl-scoreboard-service/internal/cachestore"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/metrics"
)

const precacheConcurrency = 4

var (
	// ErrAlreadyInstalled is returned when Install runs more than once.
	ErrAlreadyInstalled = errors.New("offline: proxy already installed")
	// ErrNotInstalled is returned when activation is attempted before installation completes.
	ErrNotInstalled = errors.New("offline: proxy not installed")
)

// Proxy intercepts outbound requests once active.
type Proxy struct {
	next    http.RoundTripper
	client  *http.Client
	storage cachestore.Storage
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Recorder

	state             atomic.Int32
	activateRequested atomic.Bool
	activateMu        sync.Mutex
}

// New constructs a Proxy that reaches the network through next.
func New(next http.RoundTripper, storage cachestore.Storage, opts Options, logger *slog.Logger, recorder *metrics.Recorder) *Proxy {
	if next == nil {
		next = http.DefaultTransport
	}
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	if opts.Version == "" {
		opts.Version = defaultVersion
	}
	return &Proxy{
		next:    next,
		client:  &http.Client{Transport: next},
		storage: storage,
		opts:    opts,
		logger:  logger,
		metrics: recorder,
	}
}

// State reports the current lifecycle state.
func (p *Proxy) State() State {
	return State(p.state.Load())
}

// Options returns the proxy configuration.
func (p *Proxy) Options() Options {
	return p.opts
}

func (p *Proxy) setState(s State) {
	p.state.Store(int32(s))
	p.metrics.RecordLifecycle(s.String())
	logging.Info(p.logger, "offline proxy state changed", logging.FieldState, s.String())
}

// Install pre-populates the static bucket with core resources and discovered assets.
// Individual failures are logged and skipped; installation always reaches Installed.
func (p *Proxy) Install(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateNew), int32(StateInstalling)) {
		return ErrAlreadyInstalled
	}
	p.metrics.RecordLifecycle(StateInstalling.String())
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.precacheCore(ctx)
	}()
	go func() {
		defer wg.Done()
		p.discoverAssets(ctx)
	}()
	wg.Wait()

	p.setState(StateInstalled)
	logging.Info(p.logger, "offline proxy installed",
		logging.FieldBucket, p.opts.StaticBucket(),
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	if p.opts.SkipWaiting || p.activateRequested.Load() {
		return p.Activate(ctx)
	}
	return nil
}

// Activate deletes every bucket other than the current static and API buckets and
// starts intercepting requests. Activating an already active proxy is a no-op.
func (p *Proxy) Activate(ctx context.Context) error {
	p.activateMu.Lock()
	defer p.activateMu.Unlock()

	switch p.State() {
	case StateActive, StateActivating:
		return nil
	case StateInstalled:
	default:
		return ErrNotInstalled
	}
	p.setState(StateActivating)

	keep := map[string]struct{}{
		p.opts.StaticBucket(): {},
		p.opts.APIBucket():    {},
	}
	names, err := p.storage.Names(ctx)
	if err != nil {
		logging.Warn(p.logger, "listing cache buckets failed", "error", err)
	}
	for _, name := range names {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := p.storage.Delete(ctx, name); err != nil && !errors.Is(err, cachestore.ErrBucketNotFound) {
			logging.Warn(p.logger, "deleting stale cache bucket failed", logging.FieldBucket, name, "error", err)
			continue
		}
		logging.Info(p.logger, "deleted stale cache bucket", logging.FieldBucket, name)
	}

	p.setState(StateActive)
	return nil
}

// ClearCaches deletes every bucket. The proxy stays active and buckets are recreated on demand.
func (p *Proxy) ClearCaches(ctx context.Context) error {
	names, err := p.storage.Names(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if err := p.storage.Delete(ctx, name); err != nil && !errors.Is(err, cachestore.ErrBucketNotFound) {
			errs = append(errs, err)
		}
	}
	logging.Info(p.logger, "cleared offline caches", logging.FieldCount, len(names))
	return errors.Join(errs...)
}

// Post handles a control message. Failures are logged; nothing is returned to the sender.
func (p *Proxy) Post(ctx context.Context, msg Message) {
	var err error
	switch msg {
	case MessageActivate:
		p.activateRequested.Store(true)
		if p.State() == StateInstalled {
			err = p.Activate(ctx)
		}
	case MessageClearCaches:
		err = p.ClearCaches(ctx)
	default:
		logging.Warn(p.logger, "ignoring unknown control message", "message", string(msg))
		return
	}
	if err != nil {
		logging.Error(p.logger, "control message failed", err, "message", string(msg))
	}
}

func (p *Proxy) precacheCore(ctx context.Context) {
	bucket, err := p.storage.Open(ctx, p.opts.StaticBucket())
	if err != nil {
		logging.Warn(p.logger, "opening static bucket failed", logging.FieldBucket, p.opts.StaticBucket(), "error", err)
		return
	}
	p.cacheAll(ctx, bucket, p.opts.CoreResources)
}

// cacheAll fetches and stores each resource concurrently; failures are skipped.
func (p *Proxy) cacheAll(ctx context.Context, bucket cachestore.Bucket, resources []string) {
	var g errgroup.Group
	g.SetLimit(precacheConcurrency)
	for _, res := range resources {
		key := p.opts.resolve(res)
		g.Go(func() error {
			stored, err := p.fetch(ctx, key)
			if err != nil {
				logging.Warn(p.logger, "skipping resource", logging.FieldURL, key, "error", err)
				return nil
			}
			if err := bucket.Put(ctx, key, stored); err != nil {
				logging.Warn(p.logger, "caching resource failed", logging.FieldURL, key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
