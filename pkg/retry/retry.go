package retry

import (
	"context"
	"fmt"
	"time"

	"followsync/pkg/config"
	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts including the first (minimum 1)
	MaxAttempts int
	// Backoff strategy to use between attempts
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each wait
	OnRetry func(attempt int, err error, delay time.Duration)
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns three attempts with 2s/4s waits, retrying transient upstream errors only
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
	}
}

// FromSettings builds a retry Config from the retry section of the configuration
func FromSettings(settings config.RetryConfig, log logger.Logger) *Config {
	cfg := DefaultConfig()
	if settings.MaxAttempts > 0 {
		cfg.MaxAttempts = settings.MaxAttempts
	}
	backoff := &ExponentialBackoff{
		BaseDelay:  settings.BaseDelay,
		MaxDelay:   settings.MaxDelay,
		Multiplier: settings.Multiplier,
	}
	if backoff.Multiplier < 1 {
		backoff.Multiplier = 1
	}
	cfg.Backoff = backoff
	cfg.Logger = log
	return cfg
}

// DefaultRetryIf retries only errors classified as transient upstream failures
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	return errs.IsRetryable(errs.KindOf(err))
}

// Do executes op until it succeeds, returns a non-retryable error, runs out of
// attempts, or ctx is done.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = DefaultExponentialBackoff()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(err) {
			return err
		}

		if attempt >= maxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.WithError(err).WarnWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts": attempt,
				})
			}
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		delay := backoff.NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if cfg.Logger != nil {
			cfg.Logger.WithError(err).WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": maxAttempts,
			})
		}

		if werr := Wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, cfg)

	return result, err
}
