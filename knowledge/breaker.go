package knowledge

import (
	"sync"
	"time"
)

// BreakerConfig configures a per-provider circuit breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive empty or failed responses
	// within Window that parks the provider.
	Threshold int

	// Window bounds how far back consecutive failures count; a quiet
	// period resets the streak.
	Window time.Duration

	// Cooldown is how long a parked provider is skipped.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the default parking settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Threshold: 3,
		Window:    2 * time.Minute,
		Cooldown:  5 * time.Minute,
	}
}

// Breaker parks a provider after consecutive empty or failed responses.
// Parking one provider never affects another; each provider owns a Breaker.
type Breaker struct {
	mu          sync.Mutex
	cfg         BreakerConfig
	streak      int
	streakStart time.Time
	parkedUntil time.Time
	now         func() time.Time
}

// NewBreaker creates a breaker from config.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg, now: time.Now}
}

// Allow reports whether the provider may be called.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().After(b.parkedUntil)
}

// RecordSuccess resets the failure streak.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streak = 0
}

// RecordFailure counts a failed response toward parking.
func (b *Breaker) RecordFailure() {
	b.record()
}

// RecordEmpty counts an empty response toward parking. Repeated empties
// usually mean the source is broken or blocking us.
func (b *Breaker) RecordEmpty() {
	b.record()
}

func (b *Breaker) record() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.streak == 0 || now.Sub(b.streakStart) > b.cfg.Window {
		b.streak = 0
		b.streakStart = now
	}
	b.streak++

	if b.streak >= b.cfg.Threshold {
		b.parkedUntil = now.Add(b.cfg.Cooldown)
		b.streak = 0
	}
}

// Parked reports whether the provider is currently parked.
func (b *Breaker) Parked() bool {
	return !b.Allow()
}
