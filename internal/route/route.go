// Package route models the application's hash routes as a closed set of variants.
package route

import (
	"fmt"
	"strconv"
	"strings"
)

// Route is one of Scoreboard, GameDetail or TeamSchedule.
type Route interface {
	// Accept dispatches to the matching Visitor method.
	Accept(v Visitor)
	// Hash renders the route back to its hash form.
	Hash() string
	sealed()
}

// Visitor must handle every route variant.
type Visitor interface {
	VisitScoreboard(Scoreboard)
	VisitGameDetail(GameDetail)
	VisitTeamSchedule(TeamSchedule)
}

// Scoreboard shows one week's games. Week 0 means no week is pinned.
type Scoreboard struct {
	Week int
}

// GameDetail shows a single game.
type GameDetail struct {
	Week   int
	GameID string
}

// TeamSchedule lists a team's games across the season. Team is an upper-case abbreviation.
type TeamSchedule struct {
	Team string
}

func (Scoreboard) sealed()   {}
func (GameDetail) sealed()   {}
func (TeamSchedule) sealed() {}

func (r Scoreboard) Accept(v Visitor)   { v.VisitScoreboard(r) }
func (r GameDetail) Accept(v Visitor)   { v.VisitGameDetail(r) }
func (r TeamSchedule) Accept(v Visitor) { v.VisitTeamSchedule(r) }

func (r Scoreboard) Hash() string {
	if r.Week > 0 {
		return fmt.Sprintf("#/week/%d", r.Week)
	}
	return "#/"
}

func (r GameDetail) Hash() string {
	return fmt.Sprintf("#/week/%d/game/%s", r.Week, r.GameID)
}

func (r TeamSchedule) Hash() string {
	return "#/team/" + strings.ToLower(r.Team) + "/schedule"
}

// Default is the route shown when nothing else matches.
func Default() Route {
	return Scoreboard{}
}

// Parse reads #/, #/week/N, #/week/N/game/ID and #/team/ABBR/schedule.
// Anything unrecognized yields a Scoreboard with no pinned week.
func Parse(hash string) Route {
	path := strings.TrimPrefix(strings.TrimPrefix(hash, "#"), "/")
	if path == "" {
		return Default()
	}
	parts := strings.Split(path, "/")

	if parts[0] == "week" && len(parts) > 1 && parts[1] != "" {
		week, err := strconv.Atoi(parts[1])
		if err != nil || week < 1 {
			return Default()
		}
		if len(parts) > 3 && parts[2] == "game" && parts[3] != "" {
			return GameDetail{Week: week, GameID: parts[3]}
		}
		return Scoreboard{Week: week}
	}

	if parts[0] == "team" && len(parts) > 2 && parts[1] != "" && parts[2] == "schedule" {
		return TeamSchedule{Team: strings.ToUpper(parts[1])}
	}

	return Default()
}

type weekVisitor struct {
	week int
}

func (w *weekVisitor) VisitScoreboard(r Scoreboard)   { w.week = r.Week }
func (w *weekVisitor) VisitGameDetail(r GameDetail)   { w.week = r.Week }
func (w *weekVisitor) VisitTeamSchedule(TeamSchedule) {}

// WeekOf returns the week a route pins, or 0.
func WeekOf(r Route) int {
	if r == nil {
		return 0
	}
	v := &weekVisitor{}
	r.Accept(v)
	return v.week
}
