package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/beeflow/logging"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	// MaxAttempts is the total number of attempts including the first. Defaults to 3.
	MaxAttempts int

	// Backoff is the delay before the second attempt; it doubles for every
	// further attempt. Defaults to 500ms.
	Backoff time.Duration

	// Retryable decides whether an error is worth another attempt. By default
	// every error except context cancellation is retried.
	Retryable func(err error) bool

	Logger logging.Logger
}

type retryModel struct {
	next Model
	opts RetryOptions
}

// WithRetry wraps m so that failed non-streaming generations are retried with
// exponential backoff. Streaming requests are passed through unchanged since
// partial output may already have been consumed.
func WithRetry(m Model, opts RetryOptions) Model {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.Retryable == nil {
		opts.Retryable = func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &retryModel{next: m, opts: opts}
}

func (r *retryModel) Info() Info { return r.next.Info() }

func (r *retryModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	if req.Stream {
		return r.next.Generate(ctx, req)
	}

	out := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		var last error
		attempt := 1
		for ; attempt <= r.opts.MaxAttempts; attempt++ {
			resp, err := Collect(ctx, r.next, req)
			if err == nil {
				out <- *resp
				return
			}
			last = err
			if attempt == r.opts.MaxAttempts || !r.opts.Retryable(err) {
				break
			}

			delay := r.opts.Backoff << (attempt - 1)
			r.opts.Logger.Warn("model.retry", "model", r.next.Info().Name, "attempt", attempt, "delay", delay, "error", err)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				errCh <- ctx.Err()
				return
			case <-timer.C:
			}
		}
		errCh <- fmt.Errorf("model call failed after %d attempt(s): %w", attempt, last)
	}()

	return out, errCh
}
