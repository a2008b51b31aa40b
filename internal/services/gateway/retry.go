package gateway

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// withRetry runs fn up to maxRetries+1 times, doubling the delay between
// attempts. The context is checked before each retry so cancellation is not
// delayed by a pending backoff.
func withRetry(ctx context.Context, logger arbor.ILogger, name string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}

	var err error
	delay := baseDelay
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug().
				Str("provider", name).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying provider request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err = fn(); err == nil {
			return nil
		}
	}

	return err
}
