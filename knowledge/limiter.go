package knowledge

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Tier is a request priority class against a provider's rate limit. Higher
// tiers get a larger share of the token bucket and a longer queue wait.
type Tier int

const (
	// TierInteractive serves user-facing generation requests.
	TierInteractive Tier = iota
	// TierBatch serves background revalidation and bulk work.
	TierBatch
)

// LimiterConfig configures a per-provider token bucket.
type LimiterConfig struct {
	// RequestsPerSecond is the bucket refill rate.
	RequestsPerSecond float64

	// Burst is the bucket capacity.
	Burst int

	// InteractiveWait bounds how long an interactive request queues when
	// the bucket is empty.
	InteractiveWait time.Duration

	// BatchWait bounds how long a batch request queues.
	BatchWait time.Duration

	// BatchTokens is the token cost of a batch request; charging batch
	// work more keeps capacity free for interactive calls.
	BatchTokens int
}

// DefaultLimiterConfig returns conservative settings for public sources.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		RequestsPerSecond: 2,
		Burst:             4,
		InteractiveWait:   5 * time.Second,
		BatchWait:         500 * time.Millisecond,
		BatchTokens:       2,
	}
}

// Limiter is a token-bucket rate limiter with priority tiers.
type Limiter struct {
	bucket *rate.Limiter
	cfg    LimiterConfig
}

// NewLimiter creates a limiter from config.
func NewLimiter(cfg LimiterConfig) *Limiter {
	if cfg.BatchTokens < 1 {
		cfg.BatchTokens = 1
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:    cfg,
	}
}

// Wait blocks until a token is available or the tier's wait budget runs out.
// A cancelled or expired wait consumes no tokens.
func (l *Limiter) Wait(ctx context.Context, tier Tier) error {
	maxWait := l.cfg.InteractiveWait
	tokens := 1
	if tier == TierBatch {
		maxWait = l.cfg.BatchWait
		tokens = l.cfg.BatchTokens
	}

	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	if err := l.bucket.WaitN(waitCtx, tokens); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Allow reports whether a token is immediately available without consuming
// queue wait.
func (l *Limiter) Allow(tier Tier) bool {
	tokens := 1
	if tier == TierBatch {
		tokens = l.cfg.BatchTokens
	}
	return l.bucket.AllowN(time.Now(), tokens)
}
