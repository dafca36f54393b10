package fetcher

import (
	"errors"
	"fmt"
)

// StatusError captures a non-2xx response from the scoreboard endpoint.
type StatusError struct {
	Week       int
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("scoreboard week %d: unexpected status %d: %s", e.Week, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("scoreboard week %d: unexpected status %d", e.Week, e.StatusCode)
}

// AsStatusError attempts to unwrap an error into a StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
