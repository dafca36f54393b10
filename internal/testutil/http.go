package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Serve runs a request for path against h.
func Serve(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	return ServeRequest(h, httptest.NewRequest(method, path, body))
}

// ServeRequest runs req against h.
func ServeRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// ServeJSON runs a request, requires status want and decodes the body into dest.
func ServeJSON(t *testing.T, h http.Handler, method, path string, want int, dest any) {
	t.Helper()
	rr := Serve(h, method, path, nil)
	AssertStatus(t, rr, want)
	DecodeJSON(t, rr, dest)
}

// AssertStatus fails with the response body when the status differs.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, strings.TrimSpace(rr.Body.String()))
	}
}

// DecodeJSON decodes a JSON response body into dest.
func DecodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON response, got content type %q", ct)
	}
	if err := json.NewDecoder(rr.Body).Decode(dest); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
