package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryOptions configures exponential backoff for backend calls
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions is used when a client is built without explicit options
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// permanentError marks a failure that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// withRetry runs operation until it succeeds, returns a permanent error,
// exhausts its attempts or ctx is done.
func withRetry(ctx context.Context, opts RetryOptions, operation func() error) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}

	delay := opts.InitialDelay
	var err error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		var status *StatusError
		if errors.As(err, &status) && !status.Temporary() {
			return err
		}

		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * opts.Multiplier)
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}

	return fmt.Errorf("after %d attempts: %w", opts.MaxAttempts, err)
}
