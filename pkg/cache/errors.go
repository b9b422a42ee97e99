package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for cache backends.
var (
	// ErrNotFound reports a key that was never stored.
	ErrNotFound = errors.New("not found")

	// ErrBackend reports a backend failure: a Redis timeout, a full disk.
	// Backend failures degrade to store loads, they never abort a dump.
	ErrBackend = errors.New("backend error")

	// ErrCacheMiss reports an absent or expired entry.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks an error as transient. Only marked errors make
// RetryWithBackoff try again; everything else fails fast.
type RetryableError struct{ Err error }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError anywhere in its
// chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to three times, doubling the wait between
// attempts starting at one second. A non-retryable error or a cancelled
// context ends the loop immediately. Used around shared-cache writes, where
// a transient Redis hiccup should not cost a recomputed artifact.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	wait := time.Second

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
	return lastErr
}
