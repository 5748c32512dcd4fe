package graphql

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds how often and how slowly a failed call is repeated.
// It is built once from configuration and never mutated.
type RetryPolicy struct {
	MaxAttempts int           // Retries after the first try; 0 means a single try
	MinDelay    time.Duration // Backoff before the first retry
	MaxDelay    time.Duration // Cap on the exponential backoff
	Jitter      time.Duration // Upper bound of random delay added to each backoff
}

// Tries returns the total number of transport calls the policy allows.
func (p RetryPolicy) Tries() int {
	if p.MaxAttempts < 0 {
		return 1
	}
	return p.MaxAttempts + 1
}

// Backoff returns min(MinDelay * 2^attempt, MaxDelay) for the zero-based
// attempt that just failed. Jitter is not included.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.MinDelay
	for i := 0; i < attempt; i++ {
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
		d *= 2
	}
	return min(d, p.MaxDelay)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// JitterFunc returns a random duration in [0, max].
type JitterFunc func(max time.Duration) time.Duration

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max + 1)
}
