package scoreboard

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"nfl-scoreboard-service/internal/logging"
)

const (
	defaultRetryInitial = 500 * time.Millisecond
	defaultRetryMax     = 15 * time.Second
)

// DefaultRetryPolicy backs off exponentially and gives up after maxElapsed.
// A non-positive maxElapsed retries until the context ends.
func DefaultRetryPolicy(maxElapsed time.Duration) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = defaultRetryInitial
	policy.MaxInterval = defaultRetryMax
	policy.MaxElapsedTime = maxElapsed
	return policy
}

// LoadWithRetry repeats LoadInitialData while it reports ErrNoData, waiting between
// attempts according to policy. Any other error ends the retries.
func (s *Service) LoadWithRetry(ctx context.Context, policy backoff.BackOff) error {
	attempt := 0
	op := func() error {
		attempt++
		err := s.LoadInitialData(ctx)
		if err != nil && !errors.Is(err, ErrNoData) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		logging.Warn(s.logger, "season load retry",
			"attempt", attempt,
			"retry_in_ms", next.Milliseconds(),
			"error", err,
		)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify)
	if err != nil {
		logging.Error(s.logger, "season load failed", err, "attempts", attempt)
	}
	return err
}
