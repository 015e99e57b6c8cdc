package resilience

import (
	"context"
	"fmt"
	"time"
)

// Guard runs fn through the breaker with a deadline. When the call fails,
// times out or is rejected by an open circuit, it returns fallback together
// with the cause so callers can log it without propagating it.
func Guard[T any](ctx context.Context, b *Breaker, timeout time.Duration, fallback T, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var out T
	call := func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}

	var err error
	if b != nil {
		err = b.ExecuteContext(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return fallback, fmt.Errorf("guarded call: %w", err)
	}
	return out, nil
}
