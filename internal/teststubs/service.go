package teststubs

import (
	"context"
	"sync"

	appscoreboard "nfl-scoreboard-service/internal/app/scoreboard"
	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/season"
	"nfl-scoreboard-service/internal/view"
)

// SeasonWeeks is the season length a StubLoader reports.
const SeasonWeeks = 18

// StubLoader serves week payloads from a map. A missing week is a failed fetch.
type StubLoader struct {
	mu        sync.Mutex
	weeks     map[int]*scoreboard.WeekPayload
	fetches   map[int]int
	refreshes map[int]int
	loads     int
}

// NewStubLoader returns a loader that knows the given weeks.
func NewStubLoader(weeks map[int]*scoreboard.WeekPayload) *StubLoader {
	l := &StubLoader{
		weeks:     make(map[int]*scoreboard.WeekPayload, len(weeks)),
		fetches:   make(map[int]int),
		refreshes: make(map[int]int),
	}
	for week, payload := range weeks {
		l.weeks[week] = payload
	}
	return l
}

// Set replaces the payload served for week; nil makes it fail.
func (l *StubLoader) Set(week int, payload *scoreboard.WeekPayload) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if payload == nil {
		delete(l.weeks, week)
		return
	}
	l.weeks[week] = payload
}

func (l *StubLoader) Weeks() int { return SeasonWeeks }

func (l *StubLoader) LoadAllSeasonWeeks(ctx context.Context) map[int]*scoreboard.WeekPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	out := make(map[int]*scoreboard.WeekPayload, len(l.weeks))
	for week, payload := range l.weeks {
		if !payload.Offline {
			out[week] = payload
		}
	}
	return out
}

func (l *StubLoader) FetchWeek(ctx context.Context, week int) *scoreboard.WeekPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fetches[week]++
	return l.weeks[week]
}

func (l *StubLoader) RefreshWeek(ctx context.Context, week int) *scoreboard.WeekPayload {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshes[week]++
	return l.weeks[week]
}

// Loads counts full season loads.
func (l *StubLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// Fetches counts single-week fetches of week.
func (l *StubLoader) Fetches(week int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetches[week]
}

// Refreshes counts forced refreshes of week.
func (l *StubLoader) Refreshes(week int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes[week]
}

// NewService builds a scoreboard service over a season preloaded with weeks.
// It has no live loop and is always online.
func NewService(weeks map[int]*scoreboard.WeekPayload) (*appscoreboard.Service, *StubLoader) {
	s := season.New()
	if len(weeks) > 0 {
		s.Load(weeks)
	}
	loader := NewStubLoader(weeks)
	return appscoreboard.NewService(s, loader, nil, nil, view.NewRenderer(s), nil), loader
}
