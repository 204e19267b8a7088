package llm

import (
	"sync"
	"time"
)

// Purpose names the semantic role of a model call within the pipeline. The
// registry resolves a purpose to a chain of concrete endpoints.
type Purpose string

const (
	// PurposeDefine generates new definition texts.
	PurposeDefine Purpose = "define"
	// PurposeEnhance rewrites failed candidates guided by violations.
	PurposeEnhance Purpose = "enhance"
	// PurposeFast serves quick auxiliary calls.
	PurposeFast Purpose = "fast"
)

// ParsePurpose returns the Purpose for s, or PurposeFast for unknown values.
func ParsePurpose(s string) Purpose {
	switch Purpose(s) {
	case PurposeDefine, PurposeEnhance, PurposeFast:
		return Purpose(s)
	}
	return PurposeFast
}

// EndpointConfig defines one reachable model endpoint.
type EndpointConfig struct {
	// Provider selects the wire adapter (openai, ollama, anthropic).
	Provider string `yaml:"provider" json:"provider"`

	// URL is the API base URL; empty uses the provider default.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// Model is the model identifier sent to the provider.
	Model string `yaml:"model" json:"model"`

	// MaxTokens is the response token budget for this endpoint.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// PurposeConfig lists endpoint names in order of preference for a purpose.
type PurposeConfig struct {
	Preferred []string `yaml:"preferred" json:"preferred"`
	Fallback  []string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// HealthConfig configures per-endpoint circuit breaking.
type HealthConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// circuit opens.
	FailureThreshold int

	// RecoveryTimeout is how long an open circuit blocks the endpoint
	// before a probe request is allowed through (half-open).
	RecoveryTimeout time.Duration
}

// DefaultHealthConfig returns the default circuit-breaker settings.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
	}
}

// endpointHealth tracks the circuit state of one endpoint.
type endpointHealth struct {
	failureCount int
	circuitOpen  bool
	openedAt     time.Time
	lastSuccess  time.Time
	lastFailure  time.Time
}

// Registry maps purposes to endpoint chains and tracks endpoint health.
type Registry struct {
	mu        sync.RWMutex
	purposes  map[Purpose]*PurposeConfig
	endpoints map[string]*EndpointConfig
	health    map[string]*endpointHealth
	healthCfg HealthConfig
}

// NewRegistry creates a registry from explicit configuration.
func NewRegistry(purposes map[Purpose]*PurposeConfig, endpoints map[string]*EndpointConfig) *Registry {
	return &Registry{
		purposes:  purposes,
		endpoints: endpoints,
		health:    make(map[string]*endpointHealth),
		healthCfg: DefaultHealthConfig(),
	}
}

// NewDefaultRegistry creates a registry with a local-first default layout:
// an Ollama endpoint for everything, so the service runs without cloud keys.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		map[Purpose]*PurposeConfig{
			PurposeDefine:  {Preferred: []string{"local"}},
			PurposeEnhance: {Preferred: []string{"local"}},
			PurposeFast:    {Preferred: []string{"local"}},
		},
		map[string]*EndpointConfig{
			"local": {
				Provider:  "ollama",
				URL:       "http://localhost:11434/v1",
				Model:     "qwen2.5:14b",
				MaxTokens: 2048,
			},
		},
	)
}

// GetEndpoint returns the endpoint configuration for a name, or nil.
func (r *Registry) GetEndpoint(name string) *EndpointConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endpoints[name]
}

// Chain returns the endpoint names for a purpose: preferred first, then
// fallbacks.
func (r *Registry) Chain(p Purpose) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.purposes[p]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(cfg.Preferred)+len(cfg.Fallback))
	out = append(out, cfg.Preferred...)
	out = append(out, cfg.Fallback...)
	return out
}

// AvailableChain returns the chain filtered to endpoints whose circuit is
// closed or due for a half-open probe. When everything is parked the full
// chain is returned; trying something beats trying nothing.
func (r *Registry) AvailableChain(p Purpose) []string {
	chain := r.Chain(p)
	available := make([]string, 0, len(chain))
	for _, name := range chain {
		if r.IsAvailable(name) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return chain
	}
	return available
}

// MarkSuccess records a successful call, closing the endpoint's circuit.
func (r *Registry) MarkSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.healthFor(name)
	h.failureCount = 0
	h.circuitOpen = false
	h.lastSuccess = time.Now()
}

// MarkFailure records a failed call; the circuit opens at the configured
// consecutive-failure threshold.
func (r *Registry) MarkFailure(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.healthFor(name)
	h.failureCount++
	h.lastFailure = time.Now()
	if h.failureCount >= r.healthCfg.FailureThreshold {
		h.circuitOpen = true
		h.openedAt = time.Now()
	}
}

// IsAvailable reports whether an endpoint may be called: circuit closed, or
// open long enough that a probe is due.
func (r *Registry) IsAvailable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.health[name]
	if !ok || !h.circuitOpen {
		return true
	}
	return time.Since(h.openedAt) > r.healthCfg.RecoveryTimeout
}

// SetHealthConfig replaces the circuit-breaker settings.
func (r *Registry) SetHealthConfig(cfg HealthConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthCfg = cfg
}

// healthFor returns the health record for name, creating it if needed.
// Callers hold r.mu.
func (r *Registry) healthFor(name string) *endpointHealth {
	h, ok := r.health[name]
	if !ok {
		h = &endpointHealth{}
		r.health[name] = h
	}
	return h
}
