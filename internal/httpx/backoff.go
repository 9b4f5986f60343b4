package httpx

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes exponential delays with optional jitter. The zero value is
// not usable; construct with NewBackoff.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64
}

// NewBackoff returns a Backoff with sane bounds applied.
func NewBackoff(base, max time.Duration, jitter float64) Backoff {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if max <= 0 {
		max = 2 * time.Second
	}
	if jitter < 0 {
		jitter = 0
	}
	return Backoff{BaseDelay: base, MaxDelay: max, Jitter: jitter}
}

// ForAttempt returns the delay before retrying after the given attempt
// (0-indexed): base, 2*base, 4*base, ... capped at MaxDelay.
func (b Backoff) ForAttempt(attempt int) time.Duration {
	delay := b.BaseDelay
	if attempt > 0 {
		scaled := float64(b.BaseDelay) * math.Pow(2, float64(attempt))
		delay = time.Duration(scaled)
		if delay <= 0 || delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return b.addJitter(delay)
}

func (b Backoff) addJitter(delay time.Duration) time.Duration {
	if b.Jitter == 0 || delay <= 0 {
		return delay
	}
	factor := 1 + (rand.Float64()*2-1)*math.Min(b.Jitter, 1)
	if factor < 0 {
		factor = 0
	}
	return time.Duration(float64(delay) * factor)
}
