package currency

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryWithBackoff runs fn up to maxRetries times, doubling the delay after each failure.
// An open circuit is not retried.
func retryWithBackoff(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	delay := baseRetryDelay
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry canceled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrCircuitOpen) {
			return lastErr
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
