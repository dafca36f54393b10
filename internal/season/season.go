// Package season owns the application's working data: loaded weeks, connectivity and
// live flags, and the current route. One Season is created per process and passed to
// each component that needs it.
package season

import (
	"sort"
	"sync"

	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/route"
)

// Status is a point-in-time view of the working set.
type Status struct {
	Loaded   bool   `json:"loaded"`
	Offline  bool   `json:"offline"`
	Live     bool   `json:"live"`
	LiveWeek int    `json:"liveWeek,omitempty"`
	Weeks    []int  `json:"weeks"`
	Route    string `json:"route"`
}

// Season is safe for concurrent use.
type Season struct {
	mu      sync.RWMutex
	weeks   map[int]*scoreboard.WeekPayload
	loaded  bool
	offline bool
	live    bool
	route   route.Route
}

// New returns an empty, online season on the default route.
func New() *Season {
	return &Season{
		weeks: make(map[int]*scoreboard.WeekPayload),
		route: route.Default(),
	}
}

// Load replaces every week with weeks and marks the season loaded.
func (s *Season) Load(weeks map[int]*scoreboard.WeekPayload) {
	next := make(map[int]*scoreboard.WeekPayload, len(weeks))
	for w, p := range weeks {
		if p != nil && !p.Offline {
			next[w] = p
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks = next
	s.loaded = true
}

// Clear drops all weeks and marks the season unloaded.
func (s *Season) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks = make(map[int]*scoreboard.WeekPayload)
	s.loaded = false
}

// Loaded reports whether Load has run since the last Clear.
func (s *Season) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Week returns the payload held for week.
func (s *Season) Week(week int) (*scoreboard.WeekPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.weeks[week]
	return p, ok
}

// SetWeek replaces one week. Nil and offline payloads keep the previous value and report false.
func (s *Season) SetWeek(week int, payload *scoreboard.WeekPayload) bool {
	if payload == nil || payload.Offline {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weeks[week] = payload
	return true
}

// Weeks lists held week numbers in ascending order.
func (s *Season) Weeks() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedWeeksLocked()
}

func (s *Season) sortedWeeksLocked() []int {
	out := make([]int, 0, len(s.weeks))
	for w := range s.weeks {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// All returns a copy of the week map.
func (s *Season) All() map[int]*scoreboard.WeekPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]*scoreboard.WeekPayload, len(s.weeks))
	for w, p := range s.weeks {
		out[w] = p
	}
	return out
}

// LiveWeek returns the first week, ascending, with an in-progress event.
func (s *Season) LiveWeek() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveWeekLocked()
}

func (s *Season) liveWeekLocked() (int, bool) {
	for _, w := range s.sortedWeeksLocked() {
		if s.weeks[w].HasInProgress() {
			return w, true
		}
	}
	return 0, false
}

// HasLiveGames reports whether any held week has an in-progress event.
func (s *Season) HasLiveGames() bool {
	_, ok := s.LiveWeek()
	return ok
}

func (s *Season) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

func (s *Season) Offline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offline
}

// SetLive toggles the live indicator.
func (s *Season) SetLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

func (s *Season) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func (s *Season) Route() route.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.route
}

// SetRoute changes the current route; nil resets to the default.
func (s *Season) SetRoute(r route.Route) {
	if r == nil {
		r = route.Default()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = r
}

// Status snapshots the working set.
func (s *Season) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	liveWeek, _ := s.liveWeekLocked()
	return Status{
		Loaded:   s.loaded,
		Offline:  s.offline,
		Live:     s.live,
		LiveWeek: liveWeek,
		Weeks:    s.sortedWeeksLocked(),
		Route:    s.route.Hash(),
	}
}
