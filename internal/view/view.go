// Package view renders the current route from the season into a JSON view model and
// remembers the most recent rendering.
package view

import (
	"sort"
	"sync"
	"time"

	"nfl-scoreboard-service/internal/domain/scoreboard"
	"nfl-scoreboard-service/internal/route"
	"nfl-scoreboard-service/internal/season"
)

// View kinds.
const (
	KindScoreboard   = "scoreboard"
	KindGameDetail   = "game-detail"
	KindTeamSchedule = "team-schedule"
)

// Model is a rendered view.
type Model struct {
	Kind       string             `json:"view"`
	Route      string             `json:"route"`
	Week       int                `json:"week,omitempty"`
	GameID     string             `json:"gameId,omitempty"`
	Team       string             `json:"team,omitempty"`
	Events     []scoreboard.Event `json:"events"`
	Found      bool               `json:"found"`
	Offline    bool               `json:"offline"`
	Live       bool               `json:"live"`
	RenderedAt time.Time          `json:"renderedAt"`
}

// Renderer is safe for concurrent use.
type Renderer struct {
	season *season.Season
	now    func() time.Time

	mu      sync.Mutex
	last    Model
	renders int
}

// NewRenderer constructs a Renderer over s.
func NewRenderer(s *season.Season) *Renderer {
	return &Renderer{season: s, now: time.Now}
}

// Render renders r and records it as the current view.
func (r *Renderer) Render(rt route.Route) Model {
	if rt == nil {
		rt = route.Default()
	}
	v := &renderVisitor{season: r.season}
	rt.Accept(v)
	return r.store(v.model, rt)
}

// RenderCurrent renders the season's current route.
func (r *Renderer) RenderCurrent() Model {
	return r.Render(r.season.Route())
}

// RenderWeek renders week's scoreboard while keeping the current route.
func (r *Renderer) RenderWeek(week int) Model {
	m := scoreboardModel(r.season, week)
	return r.store(m, r.season.Route())
}

// Last returns the most recent rendering; ok is false before the first one.
func (r *Renderer) Last() (Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.renders > 0
}

// Renders counts renderings.
func (r *Renderer) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

func (r *Renderer) store(m Model, rt route.Route) Model {
	m.Route = rt.Hash()
	m.Offline = r.season.Offline()
	m.Live = r.season.Live()
	m.RenderedAt = r.now().UTC()
	if m.Events == nil {
		m.Events = []scoreboard.Event{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = m
	r.renders++
	return m
}

type renderVisitor struct {
	season *season.Season
	model  Model
}

func (v *renderVisitor) VisitScoreboard(rt route.Scoreboard) {
	week := rt.Week
	if week == 0 {
		week = DefaultWeek(v.season)
	}
	v.model = scoreboardModel(v.season, week)
}

func (v *renderVisitor) VisitGameDetail(rt route.GameDetail) {
	v.model = Model{Kind: KindGameDetail, Week: rt.Week, GameID: rt.GameID}
	payload, ok := v.season.Week(rt.Week)
	if !ok {
		return
	}
	if event, ok := payload.EventByID(rt.GameID); ok {
		v.model.Events = []scoreboard.Event{event}
		v.model.Found = true
	}
}

func (v *renderVisitor) VisitTeamSchedule(rt route.TeamSchedule) {
	v.model = Model{Kind: KindTeamSchedule, Team: rt.Team}
	for _, p := range v.season.All() {
		for _, e := range p.Events {
			if e.HasTeam(rt.Team) {
				v.model.Events = append(v.model.Events, e)
			}
		}
	}
	sort.SliceStable(v.model.Events, func(i, j int) bool {
		return v.model.Events[i].StartTime().Before(v.model.Events[j].StartTime())
	})
	v.model.Found = len(v.model.Events) > 0
}

func scoreboardModel(s *season.Season, week int) Model {
	m := Model{Kind: KindScoreboard, Week: week}
	if payload, ok := s.Week(week); ok {
		m.Events = payload.Events
		m.Found = true
	}
	return m
}

// DefaultWeek picks the week shown when none is pinned: the live week, else the
// earliest week with an upcoming game, else the last loaded week.
func DefaultWeek(s *season.Season) int {
	if week, ok := s.LiveWeek(); ok {
		return week
	}
	weeks := s.Weeks()
	for _, w := range weeks {
		p, _ := s.Week(w)
		for _, e := range p.Events {
			if e.State() == scoreboard.StatePre {
				return w
			}
		}
	}
	if len(weeks) > 0 {
		return weeks[len(weeks)-1]
	}
	return 0
}
