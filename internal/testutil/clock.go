package testutil

import "time"

// NowAt returns a clock fixed at t, for components that stamp renders or entries.
func NowAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
