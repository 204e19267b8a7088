package llm

import (
	"math"
	"math/rand"
	"time"
)

// RetryConfig bounds how hard the client hammers a single endpoint before
// declaring it unhealthy and moving to the next one in the chain.
type RetryConfig struct {
	// MaxAttempts is the per-endpoint attempt ceiling.
	MaxAttempts int

	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration

	// BackoffMultiplier grows the delay between consecutive retries.
	BackoffMultiplier float64

	// MaxBackoff caps the grown delay.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// backoff returns the jittered delay before the given retry attempt. Jitter
// keeps concurrent generation workers from retrying in lockstep.
func (rc RetryConfig) backoff(attempt int) time.Duration {
	d := time.Duration(float64(rc.BackoffBase) * math.Pow(rc.BackoffMultiplier, float64(attempt-1)))
	if d > rc.MaxBackoff {
		d = rc.MaxBackoff
	}
	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}
