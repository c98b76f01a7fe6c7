// Package retry centralises the two policies every tier shares: racing a
// call against a deadline, and retrying with exponential backoff. Keeping
// them here means timeout and retry behaviour is one audited piece of
// logic instead of being re-implemented per call site.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrDeadline is returned when the deadline wins the race. Callers treat
// it as a tier timeout, which falls through like a miss.
var ErrDeadline = errors.New("deadline exceeded before call completed")

// WithTimeout runs fn under its own deadline and returns whichever
// finishes first: the call or the timer. The slow branch is abandoned, not
// awaited — fn receives a cancelled context and must stop on its own
// (best-effort; some upstream work cannot be preempted cleanly). An
// abandoned call's eventual result is discarded.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1) // buffered so the abandoned branch never leaks

	go func() {
		v, err := fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrDeadline
		}
		return zero, ctx.Err()
	}
}

// Do retries fn with exponential backoff until it succeeds, maxRetries
// attempts are exhausted, or ctx is cancelled. The initial interval is
// short (250ms) because callers already budget their total deadline.
func Do(ctx context.Context, maxRetries uint64, fn func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	op := func() error { return fn(ctx) }
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
	if err != nil {
		return fmt.Errorf("retries exhausted: %w", err)
	}
	return nil
}
