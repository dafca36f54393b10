package testutil

import (
	"fmt"
	"time"

	"nfl-scoreboard-service/internal/domain/scoreboard"
)

// SampleEvent returns a minimal scoreboard event with the provided id and status state.
func SampleEvent(id, state, home, away string, start time.Time) scoreboard.Event {
	return scoreboard.NewEvent([]byte(fmt.Sprintf(`{
		"id": %q,
		"date": %q,
		"competitions": [{
			"status": {"type": {"state": %q}},
			"competitors": [
				{"homeAway": "home", "team": {"abbreviation": %q}},
				{"homeAway": "away", "team": {"abbreviation": %q}}
			]
		}]
	}`, id, start.UTC().Format("2006-01-02T15:04Z"), state, home, away)))
}

// SampleWeek builds a week payload with one event per state. Event ids are "w<week>-<index>"
// and every game is KC at BUF one hour apart.
func SampleWeek(week int, states ...string) *scoreboard.WeekPayload {
	kickoff := time.Date(2025, 9, 4, 0, 20, 0, 0, time.UTC).AddDate(0, 0, 7*(week-1))
	p := &scoreboard.WeekPayload{Events: []scoreboard.Event{}}
	for i, state := range states {
		id := fmt.Sprintf("w%d-%d", week, i)
		p.Events = append(p.Events, SampleEvent(id, state, "BUF", "KC", kickoff.Add(time.Duration(i)*time.Hour)))
	}
	return p
}
