// Package fixture serves a deterministic scoreboard for local runs and tests.
package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// DefaultLiveWeek is the week whose first game is reported in progress.
const DefaultLiveWeek = 2

var seasonKickoff = time.Date(2025, time.September, 4, 0, 20, 0, 0, time.UTC)

type matchup struct {
	home, away string
}

var matchups = []matchup{
	{home: "KC", away: "BAL"},
	{home: "PHI", away: "DAL"},
	{home: "SF", away: "SEA"},
	{home: "BUF", away: "MIA"},
}

// Transport answers scoreboard requests with generated weeks. It never touches the network.
type Transport struct {
	liveWeek int
	mu       sync.Mutex
	polls    map[int]int
}

// New creates a fixture transport with DefaultLiveWeek in progress.
func New() *Transport {
	return NewWithLiveWeek(DefaultLiveWeek)
}

// NewWithLiveWeek creates a fixture transport reporting liveWeek in progress; 0 disables live games.
func NewWithLiveWeek(liveWeek int) *Transport {
	return &Transport{
		liveWeek: liveWeek,
		polls:    make(map[int]int),
	}
}

// SetLiveWeek changes which week has a game in progress.
func (t *Transport) SetLiveWeek(week int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.liveWeek = week
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return respond(req, http.StatusMethodNotAllowed, "text/plain", []byte("method not allowed")), nil
	}
	weekParam := req.URL.Query().Get("week")
	if weekParam == "" {
		return respond(req, http.StatusOK, "application/json", []byte(`{"events":[]}`)), nil
	}
	week, err := strconv.Atoi(weekParam)
	if err != nil || week < 1 {
		return respond(req, http.StatusBadRequest, "text/plain", []byte("invalid week")), nil
	}

	t.mu.Lock()
	t.polls[week]++
	poll := t.polls[week]
	live := t.liveWeek
	t.mu.Unlock()

	body, err := json.Marshal(Week(week, live, poll))
	if err != nil {
		return nil, err
	}
	return respond(req, http.StatusOK, "application/json", body), nil
}

// Week builds a scoreboard body for week. Weeks before liveWeek are final, later weeks
// are scheduled, and liveWeek's first game is in progress with a score that grows per poll.
func Week(week, liveWeek, poll int) map[string]any {
	kickoff := seasonKickoff.AddDate(0, 0, 7*(week-1))
	events := make([]any, 0, len(matchups))
	for i, m := range matchups {
		state, detail := "pre", "Scheduled"
		homeScore, awayScore := 0, 0
		switch {
		case liveWeek > 0 && week < liveWeek:
			state, detail = "post", "Final"
			homeScore, awayScore = 17+i*3, 14+week%7
		case week == liveWeek && i == 0:
			state, detail = "in", "2nd Quarter"
			homeScore, awayScore = 3*poll, 7
		case week == liveWeek:
			state, detail = "post", "Final"
			homeScore, awayScore = 24, 20
		}
		id := fmt.Sprintf("fixture-%02d-%d", week, i+1)
		status := map[string]any{
			"type": map[string]any{"state": state, "detail": detail, "completed": state == "post"},
		}
		events = append(events, map[string]any{
			"id":   id,
			"name": m.away + " at " + m.home,
			"date": kickoff.Add(time.Duration(i) * 3 * time.Hour).Format("2006-01-02T15:04Z"),
			"competitions": []any{map[string]any{
				"id":     id,
				"status": status,
				"competitors": []any{
					competitor(m.home, "home", homeScore),
					competitor(m.away, "away", awayScore),
				},
			}},
			"status": status,
		})
	}
	return map[string]any{
		"leagues": []any{map[string]any{"abbreviation": "NFL"}},
		"week":    map[string]any{"number": week},
		"events":  events,
	}
}

func competitor(abbr, side string, score int) map[string]any {
	return map[string]any{
		"homeAway": side,
		"score":    strconv.Itoa(score),
		"team":     map[string]any{"abbreviation": abbr},
	}
}

func respond(req *http.Request, status int, contentType string, body []byte) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{contentType}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
