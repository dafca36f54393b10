// Package scoreboard holds the week payloads fetched from the upstream scoreboard API.
// Events are kept as raw JSON; only their id, start date, status state and competitor
// abbreviations are ever read.
package scoreboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"nfl-scoreboard-service/internal/timeutil"
)

// Status states reported under status.type.state.
const (
	StatePre        = "pre"
	StateInProgress = "in"
	StatePost       = "post"
)

// OfflineMessage is the explanation carried by synthesized offline placeholders.
const OfflineMessage = "No cached data available - please connect to internet to load games"

// ErrMalformedPayload is returned when a body is not JSON or lacks an events array.
var ErrMalformedPayload = errors.New("scoreboard: malformed payload")

// Event is an upstream game, passed through untouched.
type Event struct {
	raw json.RawMessage
}

// NewEvent wraps raw event JSON.
func NewEvent(raw []byte) Event {
	return Event{raw: append(json.RawMessage(nil), raw...)}
}

// ID returns the opaque event id.
func (e Event) ID() string {
	return gjson.GetBytes(e.raw, "id").String()
}

// Date returns the raw start timestamp.
func (e Event) Date() string {
	return gjson.GetBytes(e.raw, "date").String()
}

// StartTime parses Date; the zero time is returned when it is missing or unparseable.
func (e Event) StartTime() time.Time {
	t, err := timeutil.ParseEventTime(e.Date())
	if err != nil {
		return time.Time{}
	}
	return t
}

// State returns the game's status state, preferring the first competition's status.
func (e Event) State() string {
	if state := gjson.GetBytes(e.raw, "competitions.0.status.type.state"); state.Exists() {
		return state.String()
	}
	return gjson.GetBytes(e.raw, "status.type.state").String()
}

// InProgress reports whether the game is currently being played.
func (e Event) InProgress() bool {
	return e.State() == StateInProgress
}

// TeamAbbreviations lists the competitors' team abbreviations in upstream order.
func (e Event) TeamAbbreviations() []string {
	var out []string
	gjson.GetBytes(e.raw, "competitions.0.competitors.#.team.abbreviation").ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}

// HasTeam reports whether abbr (case-insensitive) is one of the competitors.
func (e Event) HasTeam(abbr string) bool {
	for _, a := range e.TeamAbbreviations() {
		if strings.EqualFold(a, abbr) {
			return true
		}
	}
	return false
}

// Raw exposes the event JSON.
func (e Event) Raw() json.RawMessage {
	return e.raw
}

func (e Event) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.raw, nil
}

func (e *Event) UnmarshalJSON(data []byte) error {
	e.raw = append(e.raw[:0], data...)
	return nil
}

// WeekPayload is one week's scoreboard. It is replaced wholesale on refresh.
type WeekPayload struct {
	Events  []Event
	Offline bool
	Message string

	// fields keeps every other top-level key so the payload re-encodes unchanged.
	fields map[string]json.RawMessage
}

// HasInProgress reports whether any event in the week is being played.
func (p *WeekPayload) HasInProgress() bool {
	if p == nil {
		return false
	}
	for _, e := range p.Events {
		if e.InProgress() {
			return true
		}
	}
	return false
}

// EventByID finds an event by its id.
func (p *WeekPayload) EventByID(id string) (Event, bool) {
	if p == nil {
		return Event{}, false
	}
	for _, e := range p.Events {
		if e.ID() == id {
			return e, true
		}
	}
	return Event{}, false
}

func (p WeekPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.fields)+3)
	for k, v := range p.fields {
		out[k] = v
	}
	events := p.Events
	if events == nil {
		events = []Event{}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	out["events"] = raw
	if p.Offline {
		out["offline"] = json.RawMessage("true")
	}
	if p.Message != "" {
		msg, err := json.Marshal(p.Message)
		if err != nil {
			return nil, err
		}
		out["error"] = msg
	}
	return json.Marshal(out)
}

func (p *WeekPayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = WeekPayload{}
	if raw, ok := fields["events"]; ok {
		if err := json.Unmarshal(raw, &p.Events); err != nil {
			return err
		}
		delete(fields, "events")
	}
	if raw, ok := fields["offline"]; ok {
		p.Offline = gjson.ParseBytes(raw).Bool()
		delete(fields, "offline")
	}
	if raw, ok := fields["error"]; ok {
		p.Message = gjson.ParseBytes(raw).String()
		delete(fields, "error")
	}
	if len(fields) > 0 {
		p.fields = fields
	}
	return nil
}

// Decode parses an upstream body. Offline placeholders are returned without validation;
// anything else must carry an events array.
func Decode(body []byte) (*WeekPayload, error) {
	body = bytes.TrimSpace(body)
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, ErrMalformedPayload
	}
	offline := gjson.GetBytes(body, "offline").Bool()
	if !offline && !gjson.GetBytes(body, "events").IsArray() {
		return nil, ErrMalformedPayload
	}
	var p WeekPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}
	return &p, nil
}

// OfflinePlaceholder is the body served when the API is unreachable and nothing is cached.
func OfflinePlaceholder() []byte {
	body, _ := json.Marshal(map[string]any{
		"events":  []any{},
		"leagues": []any{},
		"offline": true,
		"error":   OfflineMessage,
	})
	return body
}
