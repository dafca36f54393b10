// Package fetcher loads season weeks from the scoreboard endpoint, fronted by the
// session-scoped request cache. Fetch failures are logged and absorbed: callers see a
// nil payload and treat "no data" and "error" identically.
package fetcher

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/metrics"
	"nfl-scoreboard-service/internal/store"
)

// DefaultSeasonWeeks is the regular season length.
const DefaultSeasonWeeks = 18

// WeekSource fetches one week from upstream.
type WeekSource interface {
	FetchWeek(ctx context.Context, week int) (*scoreboard.WeekPayload, error)
}

// Fetcher orchestrates week fetches through the request cache.
type Fetcher struct {
	source     WeekSource
	sourceName string
	cache      *store.MemoryStore
	weeks      int
	group      singleflight.Group
	logger     *slog.Logger
	metrics    *metrics.Recorder
}

// New constructs a Fetcher over source. weeks bounds LoadAllSeasonWeeks.
func New(source WeekSource, sourceName string, cache *store.MemoryStore, weeks int, logger *slog.Logger, recorder *metrics.Recorder) *Fetcher {
	if cache == nil {
		cache = store.NewMemoryStore()
	}
	if weeks <= 0 {
		weeks = DefaultSeasonWeeks
	}
	return &Fetcher{
		source:     source,
		sourceName: sourceName,
		cache:      cache,
		weeks:      weeks,
		logger:     logger,
		metrics:    recorder,
	}
}

// Cache exposes the request cache.
func (f *Fetcher) Cache() *store.MemoryStore {
	return f.cache
}

// Weeks reports the configured season length.
func (f *Fetcher) Weeks() int {
	return f.weeks
}

// LoadAllSeasonWeeks fetches weeks 1..N concurrently and waits for all of them.
// Weeks that failed, were malformed or came back as offline placeholders are omitted;
// an empty map means every week failed.
func (f *Fetcher) LoadAllSeasonWeeks(ctx context.Context) map[int]*scoreboard.WeekPayload {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[int]*scoreboard.WeekPayload, f.weeks)
	)
	for week := 1; week <= f.weeks; week++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := f.FetchWeek(ctx, week)
			if payload == nil || payload.Offline {
				return
			}
			mu.Lock()
			out[week] = payload
			mu.Unlock()
		}()
	}
	wg.Wait()

	logging.Info(f.logger, "season load complete", logging.FieldCount, len(out))
	return out
}

// FetchWeek returns the cached payload for week or fetches it.
// Concurrent fetches of the same week share one upstream request. The shared request
// is not cancelled with the caller that started it; the client timeout bounds it.
func (f *Fetcher) FetchWeek(ctx context.Context, week int) *scoreboard.WeekPayload {
	if payload, ok := f.cache.Get(week); ok {
		return payload
	}
	shared := context.WithoutCancel(ctx)
	v, _, _ := f.group.Do(strconv.Itoa(week), func() (any, error) {
		if payload, ok := f.cache.Get(week); ok {
			return payload, nil
		}
		return f.fetch(shared, week), nil
	})
	payload, _ := v.(*scoreboard.WeekPayload)
	return payload
}

// RefreshWeek evicts week from the cache and performs exactly one fresh fetch.
func (f *Fetcher) RefreshWeek(ctx context.Context, week int) *scoreboard.WeekPayload {
	key := strconv.Itoa(week)
	f.cache.Delete(week)
	f.group.Forget(key)
	shared := context.WithoutCancel(ctx)
	v, _, _ := f.group.Do(key, func() (any, error) {
		return f.fetch(shared, week), nil
	})
	payload, _ := v.(*scoreboard.WeekPayload)
	return payload
}

func (f *Fetcher) fetch(ctx context.Context, week int) *scoreboard.WeekPayload {
	start := time.Now()
	payload, err := f.source.FetchWeek(ctx, week)
	duration := time.Since(start)
	f.metrics.RecordFetch(f.sourceName, duration, err)

	if err != nil {
		attrs := []any{logging.FieldWeek, week, logging.FieldSource, f.sourceName, "error", err}
		if statusErr, ok := AsStatusError(err); ok {
			attrs = append(attrs, logging.FieldStatusCode, statusErr.StatusCode)
		}
		logging.Warn(f.logger, "week fetch failed", attrs...)
		return nil
	}
	if payload == nil {
		return nil
	}
	if payload.Offline {
		logging.Info(f.logger, "week unavailable offline", logging.FieldWeek, week)
		return payload
	}
	f.cache.Put(week, payload)
	logging.Debug(f.logger, "week fetched",
		logging.FieldWeek, week,
		logging.FieldCount, len(payload.Events),
		logging.FieldDurationMS, duration.Milliseconds(),
	)
	return payload
}
