package retry

import (
	"context"
	"fmt"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration
}

// DefaultConfig returns a default retry configuration with 1 minute max timeout
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// SingleRetryConfig returns a configuration allowing one retry after the
// initial attempt, used for transient search-index failures.
func SingleRetryConfig(timeout time.Duration) Config {
	return Config{
		MaxAttempts:     2,
		InitialDelay:    250 * time.Millisecond,
		MaxDelay:        250 * time.Millisecond,
		BackoffFactor:   1.0,
		MaxTotalTimeout: timeout,
	}
}

// GenerationConfig returns the bounded backoff configuration used for
// language model calls.
func GenerationConfig(timeout time.Duration) Config {
	return Config{
		MaxAttempts:     3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: timeout,
	}
}

// Do executes the given function with exponential backoff retry logic
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return DoWithLog(ctx, cfg, "", fn, nil)
}

// DoWithLog executes the function with retry and logs each attempt
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}

	prefix := ""
	if serviceName != "" {
		prefix = serviceName + ": "
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("%sretry aborted after %d attempts: %w (last error: %v)", prefix, attempt-1, ctx.Err(), lastErr)
			}
			return fmt.Errorf("%sretry aborted: %w", prefix, ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == cfg.MaxAttempts {
			return fmt.Errorf("%smax retry attempts (%d) exceeded: %w", prefix, cfg.MaxAttempts, lastErr)
		}

		if logFn != nil {
			logFn(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%sretry aborted after %d attempts: %w (last error: %v)", prefix, attempt, ctx.Err(), lastErr)
		case <-time.After(delay):
		}

		// Calculate next delay with exponential backoff
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("%smax retry attempts exceeded: %w", prefix, lastErr)
}
