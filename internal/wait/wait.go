// Package wait polls a condition at a fixed interval for a bounded number
// of attempts.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when the condition never held within the attempt budget.
var ErrExhausted = errors.New("condition not met")

// Condition reports whether the awaited state has been reached. A non-nil
// error aborts the wait.
type Condition func(ctx context.Context) (bool, error)

// Options bounds a wait
type Options struct {
	Interval time.Duration // pause between attempts, default 1s
	Attempts int           // maximum number of calls to the condition, default 1
}

// Until calls cond until it returns true, it returns an error, ctx is done,
// or opts.Attempts calls have been made. It returns the number of attempts
// made. No pause follows the final attempt.
func Until(ctx context.Context, cond Condition, opts Options) (int, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		ok, err := cond(ctx)
		if err != nil {
			return attempt, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		if ok {
			return attempt, nil
		}

		if attempt == attempts {
			break
		}
		if err := Sleep(ctx, interval); err != nil {
			return attempt, err
		}
	}

	return attempts, fmt.Errorf("%w after %d attempts", ErrExhausted, attempts)
}

// Sleep pauses for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
