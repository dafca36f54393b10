// Package scoreboard coordinates the season working set with the fetcher, the live
// refresh loop, connectivity changes and view rendering.
package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainscoreboard "nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/route"
	"nfl-scoreboard-service/internal/season"
	"nfl-scoreboard-service/internal/view"
)

var (
	// ErrNoData means the season load produced zero weeks.
	ErrNoData = errors.New("app: no season data could be loaded")
	// ErrWeekUnavailable means a single week could not be fetched or refreshed.
	ErrWeekUnavailable = errors.New("app: week unavailable")
	// ErrWeekOutOfRange means the week lies outside 1..season length.
	ErrWeekOutOfRange = errors.New("app: week outside the season")
)

// Loader fetches week payloads; failures come back as nil.
type Loader interface {
	Weeks() int
	LoadAllSeasonWeeks(ctx context.Context) map[int]*domainscoreboard.WeekPayload
	FetchWeek(ctx context.Context, week int) *domainscoreboard.WeekPayload
	RefreshWeek(ctx context.Context, week int) *domainscoreboard.WeekPayload
}

// Live controls the live refresh loop.
type Live interface {
	Start(ctx context.Context) bool
	Stop()
	Running() bool
}

// Network reports reachability and announces transitions.
type Network interface {
	Online() bool
	OnChange(h func(online bool))
}

// Status summarizes the service for the status endpoint.
type Status struct {
	Season      season.Status `json:"season"`
	Online      bool          `json:"online"`
	LiveRunning bool          `json:"liveRunning"`
}

// Service owns the season working set and keeps it consistent with the network.
type Service struct {
	season   *season.Season
	loader   Loader
	live     Live
	network  Network
	renderer *view.Renderer
	logger   *slog.Logger

	mu      sync.Mutex
	baseCtx context.Context
}

// NewService constructs a Service. network may be nil, in which case the service is always online.
func NewService(s *season.Season, loader Loader, live Live, network Network, renderer *view.Renderer, logger *slog.Logger) *Service {
	return &Service{
		season:   s,
		loader:   loader,
		live:     live,
		network:  network,
		renderer: renderer,
		logger:   logger,
		baseCtx:  context.Background(),
	}
}

// Season exposes the working set.
func (s *Service) Season() *season.Season {
	return s.season
}

// Watch subscribes to connectivity transitions and applies the current state.
// ctx bounds work started from transition handlers.
func (s *Service) Watch(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	if s.network == nil {
		return
	}
	s.network.OnChange(s.handleConnectivity)
	if !s.network.Online() {
		s.goOffline()
	}
}

// LoadInitialData loads every season week, replaces the working set, renders the current
// route and starts live refresh when a loaded week has a game in progress.
// ctx bounds the load only; the live loop runs under the context given to Watch.
// ErrNoData is returned, and the working set left untouched, when nothing loaded.
func (s *Service) LoadInitialData(ctx context.Context) error {
	weeks := s.loader.LoadAllSeasonWeeks(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(weeks) == 0 {
		logging.Warn(s.logger, "season load returned no weeks")
		return ErrNoData
	}

	s.season.Load(weeks)
	s.renderer.RenderCurrent()
	logging.Info(s.logger, "season loaded", logging.FieldCount, len(weeks))

	if s.live != nil {
		s.live.Start(s.context())
	}
	return nil
}

// SeasonWeeks reports the season length.
func (s *Service) SeasonWeeks() int {
	return s.loader.Weeks()
}

func (s *Service) checkWeek(week int) error {
	if week < 1 || week > s.loader.Weeks() {
		return fmt.Errorf("%w: week %d", ErrWeekOutOfRange, week)
	}
	return nil
}

// Week returns the held payload for week, fetching and adding it when absent.
func (s *Service) Week(ctx context.Context, week int) (*domainscoreboard.WeekPayload, error) {
	if err := s.checkWeek(week); err != nil {
		return nil, err
	}
	if payload, ok := s.season.Week(week); ok {
		return payload, nil
	}
	payload := s.loader.FetchWeek(ctx, week)
	if payload == nil || payload.Offline {
		return nil, fmt.Errorf("%w: week %d", ErrWeekUnavailable, week)
	}
	s.season.SetWeek(week, payload)
	return payload, nil
}

// RefreshWeek forces a fresh fetch of week. On failure the held payload is kept.
func (s *Service) RefreshWeek(ctx context.Context, week int) (*domainscoreboard.WeekPayload, error) {
	if err := s.checkWeek(week); err != nil {
		return nil, err
	}
	payload := s.loader.RefreshWeek(ctx, week)
	if payload == nil || payload.Offline {
		logging.Warn(s.logger, "week refresh failed", logging.FieldWeek, week)
		return nil, fmt.Errorf("%w: week %d", ErrWeekUnavailable, week)
	}
	s.season.SetWeek(week, payload)
	if route.WeekOf(s.season.Route()) == week {
		s.renderer.RenderCurrent()
	}
	if s.live != nil && payload.HasInProgress() && !s.live.Running() && s.online() {
		s.live.Start(s.context())
	}
	return payload, nil
}

// RefreshCurrentWeek refreshes the week pinned by the current scoreboard route, if any.
func (s *Service) RefreshCurrentWeek(ctx context.Context) error {
	sb, ok := s.season.Route().(route.Scoreboard)
	if !ok || sb.Week == 0 {
		return nil
	}
	_, err := s.RefreshWeek(ctx, sb.Week)
	return err
}

// Navigate parses hash, makes it the current route and renders it. A week the route
// names that is not yet held is fetched first. A week outside the season is refused
// with ErrWeekOutOfRange and the current route is kept.
func (s *Service) Navigate(ctx context.Context, hash string) (view.Model, error) {
	rt := route.Parse(hash)
	if week := route.WeekOf(rt); week > 0 {
		if err := s.checkWeek(week); err != nil {
			return view.Model{}, err
		}
		if _, err := s.Week(ctx, week); err != nil {
			logging.Warn(s.logger, "navigation week unavailable", logging.FieldWeek, week)
		}
	}
	s.season.SetRoute(rt)
	return s.renderer.Render(rt), nil
}

// View returns the last rendering, rendering the current route if nothing has been drawn.
func (s *Service) View() view.Model {
	if m, ok := s.renderer.Last(); ok {
		return m
	}
	return s.renderer.RenderCurrent()
}

// Status snapshots the service.
func (s *Service) Status() Status {
	st := Status{
		Season: s.season.Status(),
		Online: s.online(),
	}
	if s.live != nil {
		st.LiveRunning = s.live.Running()
	}
	return st
}

func (s *Service) handleConnectivity(online bool) {
	if !online {
		s.goOffline()
		return
	}
	s.goOnline()
}

func (s *Service) goOffline() {
	s.season.SetOffline(true)
	if s.live != nil {
		s.live.Stop()
	}
}

func (s *Service) goOnline() {
	ctx := s.context()
	s.season.SetOffline(false)
	if s.live != nil {
		s.live.Start(ctx)
	}
	if err := s.RefreshCurrentWeek(ctx); err != nil {
		logging.Warn(s.logger, "refresh after reconnect failed", "error", err)
	}
}

func (s *Service) online() bool {
	if s.network == nil {
		return true
	}
	return s.network.Online()
}

func (s *Service) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}
