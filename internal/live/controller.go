// Package live keeps weeks with in-progress games current by refreshing them on a fixed
// interval while the network is reachable.
package live

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/logging"
	"nfl-scoreboard-service/internal/metrics"
	"nfl-scoreboard-service/internal/poller"
	"nfl-scoreboard-service/internal/route"
	"nfl-scoreboard-service/internal/season"
	"nfl-scoreboard-service/internal/view"
)

// DefaultInterval is the live refresh period.
const DefaultInterval = 30 * time.Second

// ErrRefreshFailed is reported by a tick whose refresh produced no usable data.
var ErrRefreshFailed = errors.New("live: refresh returned no data")

// Refresher forces a fresh fetch of one week.
type Refresher interface {
	RefreshWeek(ctx context.Context, week int) *scoreboard.WeekPayload
}

// Connectivity reports whether the network is reachable.
type Connectivity interface {
	Online() bool
}

// Renderer re-renders views after a refresh.
type Renderer interface {
	Render(rt route.Route) view.Model
	RenderWeek(week int) view.Model
}

// Controller owns the single live refresh timer.
type Controller struct {
	season    *season.Season
	refresher Refresher
	conn      Connectivity
	renderer  Renderer
	logger    *slog.Logger
	metrics   *metrics.Recorder
	poller    *poller.Poller
}

// New constructs a stopped Controller.
func New(s *season.Season, refresher Refresher, conn Connectivity, renderer Renderer, interval time.Duration, logger *slog.Logger, recorder *metrics.Recorder) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Controller{
		season:    s,
		refresher: refresher,
		conn:      conn,
		renderer:  renderer,
		logger:    logger,
		metrics:   recorder,
	}
	c.poller = poller.New("live-refresh", c.Tick, logger, interval, poller.Options{OnStop: c.expired})
	return c
}

// expired clears the live indicator once the context bounding the timer is done.
func (c *Controller) expired() {
	c.season.SetLive(false)
	logging.Info(c.logger, "live refresh ended with its context")
}

// Start re-evaluates from scratch: any running timer is stopped, and a new one starts only
// when the network is reachable and a held week has an in-progress game.
// ctx bounds the timer and its refreshes; when it is done the timer ends and the live
// indicator is cleared. Stop does not cancel it.
func (c *Controller) Start(ctx context.Context) bool {
	c.Stop()
	if c.conn != nil && !c.conn.Online() {
		logging.Info(c.logger, "live refresh skipped while offline")
		return false
	}
	week, ok := c.season.LiveWeek()
	if !ok {
		return false
	}
	c.poller.Start(ctx)
	c.season.SetLive(true)
	logging.Info(c.logger, "live refresh started", logging.FieldWeek, week)
	return true
}

// Stop cancels future ticks and clears the live indicator. It is safe to call when stopped.
// A refresh already in flight completes and its result is applied.
func (c *Controller) Stop() {
	wasRunning := c.poller.Running()
	_ = c.poller.Stop(context.Background())
	c.season.SetLive(false)
	if wasRunning {
		logging.Info(c.logger, "live refresh stopped")
	}
}

// Running reports whether the timer is active.
func (c *Controller) Running() bool {
	return c.poller.Running()
}

// Status exposes the refresh loop health.
func (c *Controller) Status() poller.Status {
	return c.poller.Status()
}

// Tick refreshes the first week still holding an in-progress game.
func (c *Controller) Tick(ctx context.Context) error {
	week, ok := c.season.LiveWeek()
	if !ok || (c.conn != nil && !c.conn.Online()) {
		c.Stop()
		return nil
	}

	start := time.Now()
	payload := c.refresher.RefreshWeek(ctx, week)
	var err error
	if payload == nil || payload.Offline {
		err = ErrRefreshFailed
	}
	c.metrics.RecordLiveTick(time.Since(start), err)
	if err != nil {
		logging.Warn(c.logger, "live refresh failed", logging.FieldWeek, week)
		return err
	}

	c.season.SetWeek(week, payload)
	c.season.Route().Accept(&rerender{week: week, renderer: c.renderer})
	logging.Debug(c.logger, "live week refreshed",
		logging.FieldWeek, week,
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)

	if !c.season.HasLiveGames() {
		c.Stop()
	}
	return nil
}

// rerender redraws the current view when it shows the refreshed week or pins no week.
type rerender struct {
	week     int
	renderer Renderer
}

func (r *rerender) VisitScoreboard(rt route.Scoreboard) {
	if r.renderer == nil {
		return
	}
	if rt.Week == 0 || rt.Week == r.week {
		r.renderer.RenderWeek(r.week)
	}
}

func (r *rerender) VisitGameDetail(rt route.GameDetail) {
	if r.renderer == nil {
		return
	}
	if rt.Week == r.week && rt.GameID != "" {
		r.renderer.Render(rt)
	}
}

func (r *rerender) VisitTeamSchedule(route.TeamSchedule) {}
