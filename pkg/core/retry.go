package core

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Sleeper abstracts time.Sleep for deterministic tests.
type Sleeper interface {
	Sleep(time.Duration)
}

// FuncSleeper wraps a function to satisfy Sleeper.
type FuncSleeper func(time.Duration)

// Sleep implements the Sleeper interface.
func (f FuncSleeper) Sleep(d time.Duration) { f(d) }

// BackoffStrategy holds retry parameters.
type BackoffStrategy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	Jitter      float64
	Sleeper     Sleeper
	Rand        func() float64
}

// DefaultBackoff returns the backoff used for conflict retries inside one reconcile pass.
// Longer outages fall through to the controller's rate-limited requeue.
func DefaultBackoff() BackoffStrategy {
	return BackoffStrategy{
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    3 * time.Second,
		MaxAttempts: 5,
		Jitter:      0.2,
	}
}

// Retry executes fn with exponential backoff. It stops retrying when fn returns nil,
// when shouldRetry returns false, when ctx is done, or after MaxAttempts have been
// exhausted. It returns the number of attempts executed and the last error from fn, if any.
func (b BackoffStrategy) Retry(ctx context.Context, fn func() error, shouldRetry func(error) bool) (int, error) {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = 1
	}
	if b.BaseDelay <= 0 {
		b.BaseDelay = 100 * time.Millisecond
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = time.Second
	}
	sleeper := b.Sleeper
	if sleeper == nil {
		sleeper = contextSleeper{ctx: ctx}
	}
	rnd := b.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return attempt, nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return attempt, err
		}
		if attempt == b.MaxAttempts || ctx.Err() != nil {
			return attempt, err
		}
		sleeper.Sleep(b.Delay(attempt, rnd()))
	}
	return b.MaxAttempts, nil
}

// Delay returns the wait before the attempt following attempt, with jitter scaled by r in [0,1).
func (b BackoffStrategy) Delay(attempt int, r float64) time.Duration {
	delay := b.nextDelay(attempt)
	if b.Jitter > 0 {
		jitter := float64(delay) * b.Jitter * r
		delay += time.Duration(jitter)
	}
	return delay
}

func (b BackoffStrategy) nextDelay(attempt int) time.Duration {
	exp := float64(attempt - 1)
	delay := float64(b.BaseDelay) * math.Pow(2, exp)
	max := float64(b.MaxDelay)
	if delay > max {
		delay = max
	}
	return time.Duration(delay)
}

// contextSleeper sleeps for d or until ctx is done, whichever comes first.
type contextSleeper struct{ ctx context.Context }

func (s contextSleeper) Sleep(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.ctx.Done():
	}
}
