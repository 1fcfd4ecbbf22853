package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBaseWait = 1 * time.Second
	retryJitterFraction  = 0.25
)

// retryBackoff returns the wait before the next attempt (0-indexed): 1s, 2s,
// 4s with ±25% jitter.
func retryBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := defaultRetryBaseWait << attempt
	jitter := time.Duration(float64(base) * retryJitterFraction * (2*rand.Float64() - 1)) // #nosec G404 -- jitter only
	return base + jitter
}

// connectWithRetry calls connect up to defaultRetryAttempts times, sleeping
// retryBackoff between failures. The last error is returned wrapped with
// the backend name.
func connectWithRetry(ctx context.Context, backend string, logger *slog.Logger, connect func(context.Context) error) error {
	return retry(ctx, backend, defaultRetryAttempts, retryBackoff, logger, connect)
}

func retry(
	ctx context.Context,
	backend string,
	attempts int,
	backoff func(int) time.Duration,
	logger *slog.Logger,
	fn func(context.Context) error,
) error {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		wait := backoff(attempt)
		if logger != nil {
			logger.Warn(backend+" connection failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", attempts),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("connect to %s: context canceled during retry: %w", backend, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("connect to %s after %d attempts: %w", backend, attempts, lastErr)
}
