package indexer

import (
	"context"
	"time"
)

const maxBackoffFactor = 32

// backoff retries an RPC call, doubling the delay after each failure up to
// maxBackoffFactor times the base delay.
type backoff struct {
	retries int
	base    time.Duration
}

func newBackoff(retries int, base time.Duration) backoff {
	if retries < 0 {
		retries = 0
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return backoff{retries: retries, base: base}
}

func (b backoff) do(ctx context.Context, fn func(context.Context) error) error {
	delay := b.base
	limit := b.base * maxBackoffFactor

	var err error
	for attempt := 0; attempt <= b.retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			if delay *= 2; delay > limit {
				delay = limit
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
