// Package retrier provides exponential backoff with jitter for calls to
// external venues.
package retrier

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 15 * time.Second
	defaultMultiplier      = 2.0
	defaultMaxAttempts     = 4
	defaultJitter          = 0.2
)

// Retrier retries a failing call with exponentially growing, jittered pauses.
type Retrier struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	maxAttempts     int
	jitter          float64
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithInitialInterval sets the pause before the second attempt.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) { r.initialInterval = d }
}

// WithMaxInterval caps the pause between attempts.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) { r.maxInterval = d }
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(r *Retrier) { r.multiplier = m }
}

// WithMaxAttempts sets the total number of attempts, first call included.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) { r.maxAttempts = n }
}

// WithJitter sets the jitter fraction applied to each pause, 0.0 to 1.0.
func WithJitter(j float64) Option {
	return func(r *Retrier) { r.jitter = j }
}

// New creates a Retrier with defaults and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		multiplier:      defaultMultiplier,
		maxAttempts:     defaultMaxAttempts,
		jitter:          defaultJitter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn until it succeeds, the attempts are exhausted, or ctx is done.
// The last error is returned wrapped with the attempt count.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	interval := r.initialInterval

	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == r.maxAttempts {
			break
		}

		pause := interval
		if r.jitter > 0 {
			delta := float64(interval) * r.jitter
			pause = interval + time.Duration((rand.Float64()*2-1)*delta)
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "retry cancelled")
		case <-time.After(pause):
		}

		interval = time.Duration(float64(interval) * r.multiplier)
		if interval > r.maxInterval {
			interval = r.maxInterval
		}
	}

	return errors.Wrapf(err, "after %d attempts", r.maxAttempts)
}
