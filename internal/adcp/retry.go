package adcp

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Retry defaults.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
	DefaultBackoffFactor  = 2.0
	DefaultBackoffJitter  = 0.25
)

// RetryPolicy controls ConnectWithRetry.
type RetryPolicy struct {
	// MaxAttempts is the total number of connect attempts, including the first.
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	// Jitter is the maximum extra delay as a fraction of the base delay.
	Jitter float64
}

// DefaultRetryPolicy returns the policy used by the CLI.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Initial:     DefaultInitialBackoff,
		Max:         DefaultMaxBackoff,
		Multiplier:  DefaultBackoffFactor,
		Jitter:      DefaultBackoffJitter,
	}
}

// Backoff calculates exponential backoff delays with jitter.
// Not safe for concurrent use.
type Backoff struct {
	current    time.Duration
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
	attempts   int
	rng        *rand.Rand
}

// NewBackoff creates a backoff calculator from p, filling unset fields
// with defaults.
func NewBackoff(p RetryPolicy) *Backoff {
	if p.Initial <= 0 {
		p.Initial = DefaultInitialBackoff
	}
	if p.Max <= 0 {
		p.Max = DefaultMaxBackoff
	}
	if p.Max < p.Initial {
		p.Max = p.Initial
	}
	if p.Multiplier <= 1 {
		p.Multiplier = DefaultBackoffFactor
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}

	return &Backoff{
		current:    p.Initial,
		initial:    p.Initial,
		max:        p.Max,
		multiplier: p.Multiplier,
		jitter:     p.Jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next delay (with jitter) and advances the backoff.
func (b *Backoff) Next() time.Duration {
	delay := b.addJitter(b.current)

	b.attempts++
	next := time.Duration(float64(b.current) * b.multiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// Current returns the current base delay (without jitter).
func (b *Backoff) Current() time.Duration { return b.current }

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int { return b.attempts }

// Reset returns the backoff to its initial delay.
func (b *Backoff) Reset() {
	b.current = b.initial
	b.attempts = 0
}

func (b *Backoff) addJitter(d time.Duration) time.Duration {
	if b.jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.jitter*b.rng.Float64())
}

// ConnectWithRetry calls s.Connect until it succeeds, a non-retryable error
// occurs (authentication rejection, DNS failure, cancellation) or the
// attempts run out. The last error is returned.
func ConnectWithRetry(ctx context.Context, s *Session, p RetryPolicy) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := NewBackoff(p)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := backoff.Next()
			s.logger.Info("Retrying connection",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("delay", delay),
			)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			}
		}

		err := s.Connect(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
		_ = s.Close()
	}
	return lastErr
}
