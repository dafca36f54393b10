package testutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// ErrNetworkDown is returned by StubTransport while offline.
var ErrNetworkDown = errors.New("stub transport: network down")

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// StubRoute is a canned reply for one URL.
type StubRoute struct {
	Status      int
	ContentType string
	Body        string
	Err         error
}

// StubTransport serves canned replies keyed by full URL and counts calls.
// Unknown URLs get a 404.
type StubTransport struct {
	mu      sync.Mutex
	routes  map[string]StubRoute
	calls   map[string]int
	offline bool
}

// NewStubTransport returns an empty, online transport.
func NewStubTransport() *StubTransport {
	return &StubTransport{
		routes: make(map[string]StubRoute),
		calls:  make(map[string]int),
	}
}

// Set registers a reply for rawURL.
func (s *StubTransport) Set(rawURL string, route StubRoute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[rawURL] = route
}

// SetJSON registers a 200 JSON reply for rawURL.
func (s *StubTransport) SetJSON(rawURL, body string) {
	s.Set(rawURL, StubRoute{Status: http.StatusOK, ContentType: "application/json", Body: body})
}

// SetOffline makes every request fail with ErrNetworkDown.
func (s *StubTransport) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// Calls reports how many requests reached rawURL, including failed ones.
func (s *StubTransport) Calls(rawURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[rawURL]
}

// TotalCalls reports the number of requests seen.
func (s *StubTransport) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *StubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.String()
	s.mu.Lock()
	s.calls[key]++
	route, ok := s.routes[key]
	offline := s.offline
	s.mu.Unlock()

	if offline {
		return nil, fmt.Errorf("%s %s: %w", req.Method, key, ErrNetworkDown)
	}
	if !ok {
		route = StubRoute{Status: http.StatusNotFound, Body: "not found"}
	}
	if route.Err != nil {
		return nil, route.Err
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := http.Header{}
	if route.ContentType != "" {
		header.Set("Content-Type", route.ContentType)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader([]byte(route.Body))),
		ContentLength: int64(len(route.Body)),
		Request:       req,
	}, nil
}
