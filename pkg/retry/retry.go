// Package retry provides a bounded fixed-delay retry policy for calls to the
// model service. The same policy value wraps both embedding and generation
// calls.
package retry

import (
	"context"
	"fmt"
	"time"
)

type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Delay is slept between attempts.
	Delay time.Duration
}

// DefaultPolicy matches the service defaults: three attempts, two seconds
// apart.
var DefaultPolicy = Policy{MaxAttempts: 3, Delay: 2 * time.Second}

// Do runs op until it succeeds, the attempts are exhausted, or the context
// is canceled.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
