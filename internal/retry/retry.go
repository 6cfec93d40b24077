// Package retry provides the bounded retry helper shared by the batch tools.
package retry

import (
	"context"
	"errors"
	"fmt"
)

// Do invokes op up to attempts times, stopping at the first success. The last
// error is returned after the bound is exhausted. Attempts below 1 are
// treated as a single attempt. Context cancellation stops further attempts
// immediately.
func Do(ctx context.Context, attempts int, op func(ctx context.Context, attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (after %d attempts: %w)", err, attempt-1, lastErr)
			}
			return err
		}
		if err := op(ctx, attempt); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
