package tlcache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures RateLimitedBackend.
type RateLimitConfig struct {
	RequestsPerMinute int // Sustained rate (default: 60)
	BurstSize         int // Calls allowed back to back (default: 1)
}

// limit converts the config into an x/time/rate limit and burst.
func (c RateLimitConfig) limit() (rate.Limit, int) {
	rpm := c.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	burst := c.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return rate.Every(time.Minute / time.Duration(rpm)), burst
}

// RateLimitedBackend spaces calls to a TranslationBackend with a token bucket.
// Wrapped by a RetryableBackend it paces retries as well as first attempts.
type RateLimitedBackend struct {
	backend TranslationBackend
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewRateLimitedBackend creates a rate-limited backend. The bucket starts full.
// Throttled calls are logged at debug level on logger.
func NewRateLimitedBackend(backend TranslationBackend, cfg RateLimitConfig, logger zerolog.Logger) *RateLimitedBackend {
	limit, burst := cfg.limit()
	return &RateLimitedBackend{
		backend: backend,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Translate waits for a token, then calls the wrapped backend. A wait cut short
// by ctx returns a non-retryable ProviderError and gives the token back.
func (b *RateLimitedBackend) Translate(ctx context.Context, req BackendRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", waitCancelled(err)
	}

	r := b.limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		b.logger.Debug().
			Dur("delay", delay).
			Str("target_lang", req.TargetLang).
			Msg("throttling translation backend")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.Cancel()
			return "", waitCancelled(ctx.Err())
		case <-timer.C:
		}
	}

	return b.backend.Translate(ctx, req)
}

// Limiter returns the underlying token bucket.
func (b *RateLimitedBackend) Limiter() *rate.Limiter {
	return b.limiter
}

func waitCancelled(err error) error {
	return &ProviderError{
		Message:   "rate limit wait cancelled",
		Cause:     err,
		Retryable: false,
	}
}
