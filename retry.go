package tlcache

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	BaseDelay  time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries

	// OnRetry, when set, is called before sleeping ahead of each retry.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// backoff returns the delay before retry number attempt (0-based).
func (c RetryConfig) backoff(attempt int) time.Duration {
	delay := c.BaseDelay
	for i := 0; i < attempt && delay > 0 && delay < c.MaxDelay; i++ {
		delay *= 2
	}
	if delay > c.MaxDelay || delay <= 0 {
		delay = c.MaxDelay
	}
	return delay
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes a function with exponential backoff retry.
// Only errors for which IsRetryable reports true are retried.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt == cfg.MaxRetries {
			break
		}

		delay := cfg.backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// IsRetryable reports whether a backend error is worth retrying: a ProviderError
// marked retryable, or a network timeout. Context errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// RetryableBackend wraps a TranslationBackend with retry logic.
type RetryableBackend struct {
	backend TranslationBackend
	config  RetryConfig
}

// NewRetryableBackend creates a new backend with retry logic. Retries are logged
// at warn level on logger.
func NewRetryableBackend(backend TranslationBackend, cfg RetryConfig, logger zerolog.Logger) *RetryableBackend {
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("retrying translation backend")
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}

	return &RetryableBackend{
		backend: backend,
		config:  cfg,
	}
}

// Translate implements TranslationBackend with retry logic.
func (b *RetryableBackend) Translate(ctx context.Context, req BackendRequest) (string, error) {
	return WithRetry(ctx, b.config, func() (string, error) {
		return b.backend.Translate(ctx, req)
	})
}
