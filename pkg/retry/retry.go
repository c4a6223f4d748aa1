// Package retry runs an operation a bounded number of times with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	_defaultAttempts   = 1
	_defaultMultiplier = 1
	_defaultUnit       = time.Second
)

// Policy describes how many times an operation is tried and how long to wait in between.
//
// The wait after attempt n (1-based) is Unit * Multiplier * 2^(n-1), capped by MaxDelay
// when MaxDelay is positive. With Multiplier 2 and Unit 1s that is 2s, 4s, 8s, ...
type Policy struct {
	Attempts   int
	Multiplier float64
	Unit       time.Duration
	MaxDelay   time.Duration

	// OnRetry, when set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Delay returns the wait that follows the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	mult := p.Multiplier
	if mult <= 0 {
		mult = _defaultMultiplier
	}
	unit := p.Unit
	if unit <= 0 {
		unit = _defaultUnit
	}

	d := float64(unit) * mult * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(d)
}

// Do calls fn until it succeeds or the attempts are spent. The error of the last
// attempt is returned unchanged. A ctx cancelled while waiting stops the retries
// and the last attempt's error is returned joined with ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = _defaultAttempts
	}

	var last error

	for attempt := 1; attempt <= attempts; attempt++ {
		last = fn(ctx, attempt)
		if last == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		d := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, d, last)
		}

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(last, ctx.Err())
		case <-timer.C:
		}
	}

	return last
}
