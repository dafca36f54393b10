package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainscoreboard "nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/live"
	"nfl-scoreboard-service/internal/route"
	"nfl-scoreboard-service/internal/season"
	"nfl-scoreboard-service/internal/view"
)

func weekWith(week int, states ...string) *domainscoreboard.WeekPayload {
	p := &domainscoreboard.WeekPayload{}
	for i, state := range states {
		p.Events = append(p.Events, domainscoreboard.NewEvent([]byte(fmt.Sprintf(
			`{"id":"w%d-%d","status":{"type":{"state":%q}}}`, week, i, state,
		))))
	}
	return p
}

type stubLoader struct {
	mu        sync.Mutex
	all       []map[int]*domainscoreboard.WeekPayload
	loads     int
	weeks     map[int]*domainscoreboard.WeekPayload
	fetches   map[int]int
	refreshes map[int]int
}

func newStubLoader() *stubLoader {
	return &stubLoader{
		weeks:     make(map[int]*domainscoreboard.WeekPayload),
		fetches:   make(map[int]int),
		refreshes: make(map[int]int),
	}
}

func (l *stubLoader) Weeks() int { return 18 }

func (l *stubLoader) LoadAllSeasonWeeks(ctx context.Context) map[int]*domainscoreboard.WeekPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if len(l.all) == 0 {
		return map[int]*domainscoreboard.WeekPayload{}
	}
	out := l.all[0]
	if len(l.all) > 1 {
		l.all = l.all[1:]
	}
	return out
}

func (l *stubLoader) FetchWeek(ctx context.Context, week int) *domainscoreboard.WeekPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetches[week]++
	return l.weeks[week]
}

func (l *stubLoader) RefreshWeek(ctx context.Context, week int) *domainscoreboard.WeekPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshes[week]++
	return l.weeks[week]
}

func (l *stubLoader) refreshCount(week int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes[week]
}

type stubLive struct {
	season  *season.Season
	starts  int
	stops   int
	running bool
}

func (l *stubLive) Start(ctx context.Context) bool {
	l.starts++
	_, ok := l.season.LiveWeek()
	l.running = ok
	l.season.SetLive(ok)
	return ok
}

func (l *stubLive) Stop() {
	l.stops++
	l.running = false
	l.season.SetLive(false)
}

func (l *stubLive) Running() bool { return l.running }

type stubNetwork struct {
	online   bool
	handlers []func(online bool)
}

func (n *stubNetwork) Online() bool { return n.online }

func (n *stubNetwork) OnChange(h func(online bool)) {
	n.handlers = append(n.handlers, h)
}

func (n *stubNetwork) set(online bool) {
	n.online = online
	for _, h := range n.handlers {
		h(online)
	}
}

type fixture struct {
	season   *season.Season
	loader   *stubLoader
	live     *stubLive
	network  *stubNetwork
	renderer *view.Renderer
	svc      *Service
}

func newFixture() *fixture {
	s := season.New()
	f := &fixture{
		season:   s,
		loader:   newStubLoader(),
		live:     &stubLive{season: s},
		network:  &stubNetwork{online: true},
		renderer: view.NewRenderer(s),
	}
	f.svc = NewService(s, f.loader, f.live, f.network, f.renderer, nil)
	return f
}

func TestLoadInitialDataPopulatesSeasonAndStartsLive(t *testing.T) {
	f := newFixture()
	f.loader.all = []map[int]*domainscoreboard.WeekPayload{{
		1: weekWith(1, "post"),
		2: weekWith(2, "in"),
	}}

	if err := f.svc.LoadInitialData(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !f.season.Loaded() || len(f.season.Weeks()) != 2 {
		t.Fatalf("expected two weeks loaded, got %v", f.season.Weeks())
	}
	if f.live.starts != 1 || !f.season.Live() {
		t.Fatalf("expected live refresh started")
	}
	if f.renderer.Renders() != 1 {
		t.Fatalf("expected current route rendered once, got %d", f.renderer.Renders())
	}
}

func TestLiveLoopOutlivesLoadContext(t *testing.T) {
	s := season.New()
	loader := newStubLoader()
	loader.all = []map[int]*domainscoreboard.WeekPayload{{
		1: weekWith(1, "post"),
		2: weekWith(2, "in"),
	}}
	loader.weeks[2] = weekWith(2, "in")
	renderer := view.NewRenderer(s)
	ctrl := live.New(s, loader, nil, renderer, 10*time.Millisecond, nil, nil)
	t.Cleanup(ctrl.Stop)
	svc := NewService(s, loader, ctrl, nil, renderer, nil)
	svc.Watch(context.Background())

	reqCtx, cancel := context.WithCancel(context.Background())
	if err := svc.LoadInitialData(reqCtx); err != nil {
		t.Fatalf("load: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for loader.refreshCount(2) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !ctrl.Running() || !s.Live() {
		t.Fatalf("expected live loop kept after the load context ended, running=%v live=%v", ctrl.Running(), s.Live())
	}
	if got := loader.refreshCount(2); got < 2 {
		t.Fatalf("expected live week refreshed repeatedly, got %d", got)
	}
}

func TestLoadInitialDataReportsTotalFailure(t *testing.T) {
	f := newFixture()
	f.season.Load(map[int]*domainscoreboard.WeekPayload{1: weekWith(1, "post")})

	err := f.svc.LoadInitialData(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, ok := f.season.Week(1); !ok {
		t.Fatalf("expected previous working set kept on total failure")
	}
	if f.live.starts != 0 {
		t.Fatalf("expected live refresh not started")
	}
}

func TestLoadWithRetryRecoversAfterTotalFailure(t *testing.T) {
	f := newFixture()
	f.loader.all = []map[int]*domainscoreboard.WeekPayload{
		{},
		{},
		{3: weekWith(3, "pre")},
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 5)

	if err := f.svc.LoadWithRetry(context.Background(), policy); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if f.loader.loads != 3 {
		t.Fatalf("expected three attempts, got %d", f.loader.loads)
	}
	if _, ok := f.season.Week(3); !ok {
		t.Fatalf("expected week 3 loaded")
	}
}

func TestLoadWithRetryGivesUp(t *testing.T) {
	f := newFixture()
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 2)

	err := f.svc.LoadWithRetry(context.Background(), policy)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if f.loader.loads != 3 {
		t.Fatalf("expected initial attempt plus two retries, got %d", f.loader.loads)
	}
}

func TestLoadWithRetryStopsOnCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.svc.LoadWithRetry(ctx, backoff.NewConstantBackOff(time.Millisecond))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultRetryPolicyHonorsMaxElapsed(t *testing.T) {
	policy, ok := DefaultRetryPolicy(time.Minute).(*backoff.ExponentialBackOff)
	if !ok {
		t.Fatalf("expected exponential policy")
	}
	if policy.MaxElapsedTime != time.Minute || policy.InitialInterval != defaultRetryInitial {
		t.Fatalf("unexpected policy %+v", policy)
	}
}

func TestWeekFetchesMissingWeekOnce(t *testing.T) {
	f := newFixture()
	f.loader.weeks[5] = weekWith(5, "pre")

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Week(context.Background(), 5); err != nil {
			t.Fatalf("week: %v", err)
		}
	}
	if f.loader.fetches[5] != 1 {
		t.Fatalf("expected one fetch, got %d", f.loader.fetches[5])
	}
	if _, err := f.svc.Week(context.Background(), 6); !errors.Is(err, ErrWeekUnavailable) {
		t.Fatalf("expected ErrWeekUnavailable, got %v", err)
	}
}

func TestRefreshWeekKeepsDataOnFailure(t *testing.T) {
	f := newFixture()
	held := weekWith(4, "pre")
	f.season.Load(map[int]*domainscoreboard.WeekPayload{4: held})
	f.loader.weeks[4] = &domainscoreboard.WeekPayload{Offline: true}

	if _, err := f.svc.RefreshWeek(context.Background(), 4); !errors.Is(err, ErrWeekUnavailable) {
		t.Fatalf("expected ErrWeekUnavailable, got %v", err)
	}
	if got, _ := f.season.Week(4); got != held {
		t.Fatalf("expected held week kept")
	}
}

func TestRefreshWeekStartsLiveForNewGames(t *testing.T) {
	f := newFixture()
	f.season.Load(map[int]*domainscoreboard.WeekPayload{4: weekWith(4, "pre")})
	f.loader.weeks[4] = weekWith(4, "in")

	if _, err := f.svc.RefreshWeek(context.Background(), 4); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !f.live.running {
		t.Fatalf("expected live refresh started for in-progress game")
	}
}

func TestNavigateRendersRoute(t *testing.T) {
	f := newFixture()
	f.loader.weeks[7] = weekWith(7, "post")

	m, err := f.svc.Navigate(context.Background(), "#/week/7/game/w7-0")
	if err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if m.Kind != view.KindGameDetail || !m.Found {
		t.Fatalf("expected game detail found, got %+v", m)
	}
	if got := f.season.Route(); got != (route.GameDetail{Week: 7, GameID: "w7-0"}) {
		t.Fatalf("unexpected route %v", got)
	}
	if last := f.svc.View(); last.Route != "#/week/7/game/w7-0" {
		t.Fatalf("expected last view kept, got %q", last.Route)
	}
}

func TestWeeksOutsideSeasonAreRefused(t *testing.T) {
	f := newFixture()
	f.season.Load(map[int]*domainscoreboard.WeekPayload{1: weekWith(1, "post")})
	f.season.SetRoute(route.Scoreboard{Week: 1})
	f.loader.weeks[99] = weekWith(99, "pre")
	f.loader.weeks[0] = weekWith(0, "pre")

	for _, week := range []int{0, 19, 99} {
		if _, err := f.svc.Week(context.Background(), week); !errors.Is(err, ErrWeekOutOfRange) {
			t.Fatalf("week %d: expected ErrWeekOutOfRange, got %v", week, err)
		}
		if _, err := f.svc.RefreshWeek(context.Background(), week); !errors.Is(err, ErrWeekOutOfRange) {
			t.Fatalf("refresh %d: expected ErrWeekOutOfRange, got %v", week, err)
		}
	}
	if _, err := f.svc.Navigate(context.Background(), "#/week/99/game/w99-0"); !errors.Is(err, ErrWeekOutOfRange) {
		t.Fatalf("navigate: expected ErrWeekOutOfRange, got %v", err)
	}

	if got := f.season.Weeks(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected season weeks unchanged, got %v", got)
	}
	if got := f.season.Route(); got != (route.Scoreboard{Week: 1}) {
		t.Fatalf("expected route kept, got %v", got)
	}
	if f.loader.fetches[99] != 0 || f.loader.refreshCount(99) != 0 {
		t.Fatalf("expected no upstream calls for week 99")
	}
	if _, err := f.svc.Week(context.Background(), 18); !errors.Is(err, ErrWeekUnavailable) {
		t.Fatalf("expected last season week accepted, got %v", err)
	}
}

func TestWatchAppliesInitialOfflineState(t *testing.T) {
	f := newFixture()
	f.network.online = false

	f.svc.Watch(context.Background())
	if !f.season.Offline() {
		t.Fatalf("expected offline flag set")
	}
	if f.live.stops != 1 {
		t.Fatalf("expected live refresh stopped")
	}
}

func TestConnectivityTransitions(t *testing.T) {
	f := newFixture()
	f.season.Load(map[int]*domainscoreboard.WeekPayload{
		2: weekWith(2, "in"),
		3: weekWith(3, "pre"),
	})
	f.season.SetRoute(route.Scoreboard{Week: 3})
	f.loader.weeks[3] = weekWith(3, "pre")
	f.svc.Watch(context.Background())
	f.live.Start(context.Background())

	f.network.set(false)
	if !f.season.Offline() || f.season.Live() || f.live.running {
		t.Fatalf("expected offline with live refresh stopped")
	}

	f.network.set(true)
	if f.season.Offline() {
		t.Fatalf("expected offline flag cleared")
	}
	if !f.live.running || !f.season.Live() {
		t.Fatalf("expected live refresh restarted")
	}
	if f.loader.refreshCount(3) != 1 {
		t.Fatalf("expected pinned week refreshed once, got %d", f.loader.refreshCount(3))
	}
	if f.loader.refreshCount(2) != 0 {
		t.Fatalf("expected live week left to the live loop")
	}
}

func TestRefreshCurrentWeekIgnoresUnpinnedRoutes(t *testing.T) {
	f := newFixture()
	for _, rt := range []route.Route{route.Scoreboard{}, route.TeamSchedule{Team: "KC"}, route.GameDetail{Week: 1, GameID: "x"}} {
		f.season.SetRoute(rt)
		if err := f.svc.RefreshCurrentWeek(context.Background()); err != nil {
			t.Fatalf("route %s: %v", rt.Hash(), err)
		}
	}
	if len(f.loader.refreshes) != 0 {
		t.Fatalf("expected no refreshes, got %v", f.loader.refreshes)
	}
}

func TestStatusReportsNetworkAndLive(t *testing.T) {
	f := newFixture()
	f.loader.all = []map[int]*domainscoreboard.WeekPayload{{2: weekWith(2, "in")}}
	_ = f.svc.LoadInitialData(context.Background())

	st := f.svc.Status()
	if !st.Online || !st.LiveRunning || !st.Season.Loaded || st.Season.LiveWeek != 2 {
		t.Fatalf("unexpected status %+v", st)
	}
}
