package server

import "time"

const (
	readTimeout  = 10 * time.Second
	idleTimeout  = 60 * time.Second
	minWriteTime = 10 * time.Second

	// writeMargin covers encoding and proxy cache writes after the upstream call returns.
	writeMargin = 5 * time.Second
)

// shutdownTimeout remains a var for tests to override.
var shutdownTimeout = 10 * time.Second

// writeTimeoutFor leaves room for handlers that wait on an upstream fetch, such as a
// week refresh or a full reload, bounded by the scoreboard timeout.
func writeTimeoutFor(upstream time.Duration) time.Duration {
	if d := upstream + writeMargin; d > minWriteTime {
		return d
	}
	return minWriteTime
}
