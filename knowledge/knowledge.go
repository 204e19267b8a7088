// Package knowledge retrieves background snippets for a term from external
// sources. Providers run concurrently, each behind its own rate limiter and
// circuit breaker, so one slow or broken source never drags down the rest.
package knowledge

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Snippet is one piece of retrieved background text.
type Snippet struct {
	Source  string `json:"source"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content"`
}

// Provider retrieves snippets for a term from one external source.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, term string) ([]Snippet, error)
}

// guardedProvider wraps a provider with its limiter and breaker.
type guardedProvider struct {
	provider Provider
	limiter  *Limiter
	breaker  *Breaker
}

// Service fans a lookup out across all registered providers.
type Service struct {
	providers []guardedProvider
	timeout   time.Duration
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTimeout bounds a full fan-out lookup.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService creates an empty service. Register providers with AddProvider.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		timeout: 15 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddProvider registers a provider with its own limiter and breaker. Nil
// limiter or breaker settings fall back to defaults.
func (s *Service) AddProvider(p Provider, limiter *Limiter, breaker *Breaker) {
	if limiter == nil {
		limiter = NewLimiter(DefaultLimiterConfig())
	}
	if breaker == nil {
		breaker = NewBreaker(DefaultBreakerConfig())
	}
	s.providers = append(s.providers, guardedProvider{
		provider: p,
		limiter:  limiter,
		breaker:  breaker,
	})
}

// Lookup queries all providers concurrently and merges their snippets.
// Provider failures are isolated: a parked, rate-limited or failing provider
// contributes nothing but never fails the lookup.
func (s *Service) Lookup(ctx context.Context, term string, tier Tier) []Snippet {
	if len(s.providers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := make([][]Snippet, len(s.providers))
	var wg sync.WaitGroup
	for i, gp := range s.providers {
		wg.Add(1)
		go func(i int, gp guardedProvider) {
			defer wg.Done()
			results[i] = s.lookupOne(ctx, gp, term, tier)
		}(i, gp)
	}
	wg.Wait()

	var merged []Snippet
	for _, snippets := range results {
		merged = append(merged, snippets...)
	}
	return merged
}

// lookupOne runs one guarded provider call.
func (s *Service) lookupOne(ctx context.Context, gp guardedProvider, term string, tier Tier) []Snippet {
	name := gp.provider.Name()

	if !gp.breaker.Allow() {
		s.logger.Debug("Knowledge provider parked, skipping", "provider", name)
		return nil
	}

	if err := gp.limiter.Wait(ctx, tier); err != nil {
		s.logger.Debug("Knowledge provider rate limit wait cancelled",
			"provider", name, "error", err)
		return nil
	}

	snippets, err := gp.provider.Lookup(ctx, term)
	if err != nil {
		s.logger.Warn("Knowledge provider lookup failed",
			"provider", name, "term", term, "error", err)
		gp.breaker.RecordFailure()
		return nil
	}
	if len(snippets) == 0 {
		gp.breaker.RecordEmpty()
		return nil
	}

	gp.breaker.RecordSuccess()
	return snippets
}
