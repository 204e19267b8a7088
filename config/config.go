// Package config provides layered configuration loading for lexdef.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexdef/lexdef/llm"
)

// Config is the complete lexdef configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Validation ValidationConfig `yaml:"validation"`
	Rules      RulesConfig      `yaml:"rules"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	NATS       NATSConfig       `yaml:"nats"`
	Server     ServerConfig     `yaml:"server"`
}

// ModelConfig configures LLM endpoints and purpose routing.
type ModelConfig struct {
	// Endpoints maps endpoint names to their connection settings.
	Endpoints map[string]*llm.EndpointConfig `yaml:"endpoints"`

	// Purposes maps call purposes (define, enhance, fast) to endpoint
	// chains.
	Purposes map[string]*llm.PurposeConfig `yaml:"purposes"`

	// Temperature controls sampling randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`

	// Timeout is the maximum time to wait for a model response.
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts bounds per-endpoint retries.
	MaxAttempts int `yaml:"max_attempts"`

	// EnhancementEnabled turns the enhance-and-revalidate cycle on.
	EnhancementEnabled bool `yaml:"enhancement_enabled"`
}

// ValidationConfig configures acceptance thresholds.
type ValidationConfig struct {
	// HardMinScore is the overall acceptance threshold, inclusive.
	HardMinScore float64 `yaml:"hard_min_score"`

	// CategoryMinimums maps rule categories to their own minimum scores.
	CategoryMinimums map[string]float64 `yaml:"category_minimums"`

	// Workers bounds parallel rule evaluation; 0 or 1 runs sequentially.
	Workers int `yaml:"workers"`
}

// RulesConfig configures rule loading and caching.
type RulesConfig struct {
	// Patterns are glob patterns for YAML rule overlay files.
	Patterns []string `yaml:"patterns"`

	// CacheCapacity is the maximum number of cached rule sets.
	CacheCapacity int `yaml:"cache_capacity"`

	// CacheTTL expires cached rule sets.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Watch reloads rules when overlay files change.
	Watch bool `yaml:"watch"`
}

// KnowledgeProviderConfig configures one external knowledge source.
type KnowledgeProviderConfig struct {
	Name string `yaml:"name"`

	// URLTemplate is the lookup URL with %s for the escaped term.
	URLTemplate string `yaml:"url_template"`

	// RequestsPerSecond and Burst configure the provider's token bucket.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// KnowledgeConfig configures external knowledge retrieval.
type KnowledgeConfig struct {
	// Enabled turns knowledge retrieval on.
	Enabled bool `yaml:"enabled"`

	// Providers lists the external sources to consult.
	Providers []KnowledgeProviderConfig `yaml:"providers"`

	// Timeout bounds a full fan-out lookup.
	Timeout time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	// URL is the NATS server URL, empty disables NATS-backed storage and
	// event publishing.
	URL string `yaml:"url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with local-first defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Endpoints: map[string]*llm.EndpointConfig{
				"local": {
					Provider:  "ollama",
					URL:       "http://localhost:11434/v1",
					Model:     "qwen2.5:14b",
					MaxTokens: 2048,
				},
			},
			Purposes: map[string]*llm.PurposeConfig{
				"define":  {Preferred: []string{"local"}},
				"enhance": {Preferred: []string{"local"}},
				"fast":    {Preferred: []string{"local"}},
			},
			Temperature:        0.2,
			Timeout:            3 * time.Minute,
			MaxAttempts:        3,
			EnhancementEnabled: true,
		},
		Validation: ValidationConfig{
			HardMinScore: 0.75,
			CategoryMinimums: map[string]float64{
				"essence": 0.5,
				"form":    0.5,
			},
			Workers: 1,
		},
		Rules: RulesConfig{
			Patterns:      []string{"rules/*.yaml"},
			CacheCapacity: 16,
			CacheTTL:      10 * time.Minute,
			Watch:         false,
		},
		Knowledge: KnowledgeConfig{
			Enabled: false,
			Timeout: 15 * time.Second,
		},
		NATS: NATSConfig{
			URL: "",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Model.Endpoints) == 0 {
		return fmt.Errorf("model.endpoints must not be empty")
	}
	for name, ep := range c.Model.Endpoints {
		if ep.Provider == "" {
			return fmt.Errorf("model.endpoints.%s: provider is required", name)
		}
		if ep.Model == "" {
			return fmt.Errorf("model.endpoints.%s: model is required", name)
		}
	}
	for purpose, pc := range c.Model.Purposes {
		for _, name := range append(append([]string{}, pc.Preferred...), pc.Fallback...) {
			if _, ok := c.Model.Endpoints[name]; !ok {
				return fmt.Errorf("model.purposes.%s references unknown endpoint %q", purpose, name)
			}
		}
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Validation.HardMinScore < 0 || c.Validation.HardMinScore > 1 {
		return fmt.Errorf("validation.hard_min_score must be between 0 and 1")
	}
	for category, min := range c.Validation.CategoryMinimums {
		if min < 0 || min > 1 {
			return fmt.Errorf("validation.category_minimums.%s must be between 0 and 1", category)
		}
	}
	if c.Rules.CacheCapacity < 1 {
		return fmt.Errorf("rules.cache_capacity must be at least 1")
	}
	if c.Knowledge.Enabled && len(c.Knowledge.Providers) == 0 {
		return fmt.Errorf("knowledge.enabled requires at least one provider")
	}
	for i, p := range c.Knowledge.Providers {
		if p.Name == "" || p.URLTemplate == "" {
			return fmt.Errorf("knowledge.providers[%d]: name and url_template are required", i)
		}
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Merge overlays another config onto this one; non-zero values in other win.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Model.Endpoints) > 0 {
		if c.Model.Endpoints == nil {
			c.Model.Endpoints = make(map[string]*llm.EndpointConfig)
		}
		for name, ep := range other.Model.Endpoints {
			c.Model.Endpoints[name] = ep
		}
	}
	if len(other.Model.Purposes) > 0 {
		if c.Model.Purposes == nil {
			c.Model.Purposes = make(map[string]*llm.PurposeConfig)
		}
		for purpose, pc := range other.Model.Purposes {
			c.Model.Purposes[purpose] = pc
		}
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}
	if other.Model.MaxAttempts != 0 {
		c.Model.MaxAttempts = other.Model.MaxAttempts
	}
	if other.Model.EnhancementEnabled {
		c.Model.EnhancementEnabled = true
	}

	if other.Validation.HardMinScore != 0 {
		c.Validation.HardMinScore = other.Validation.HardMinScore
	}
	if len(other.Validation.CategoryMinimums) > 0 {
		c.Validation.CategoryMinimums = other.Validation.CategoryMinimums
	}
	if other.Validation.Workers != 0 {
		c.Validation.Workers = other.Validation.Workers
	}

	if len(other.Rules.Patterns) > 0 {
		c.Rules.Patterns = other.Rules.Patterns
	}
	if other.Rules.CacheCapacity != 0 {
		c.Rules.CacheCapacity = other.Rules.CacheCapacity
	}
	if other.Rules.CacheTTL != 0 {
		c.Rules.CacheTTL = other.Rules.CacheTTL
	}
	if other.Rules.Watch {
		c.Rules.Watch = true
	}

	if other.Knowledge.Enabled {
		c.Knowledge.Enabled = true
	}
	if len(other.Knowledge.Providers) > 0 {
		c.Knowledge.Providers = other.Knowledge.Providers
	}
	if other.Knowledge.Timeout != 0 {
		c.Knowledge.Timeout = other.Knowledge.Timeout
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
}

// Registry builds the LLM endpoint registry from the model section.
func (c *Config) Registry() *llm.Registry {
	purposes := make(map[llm.Purpose]*llm.PurposeConfig, len(c.Model.Purposes))
	for name, pc := range c.Model.Purposes {
		purposes[llm.ParsePurpose(name)] = pc
	}
	return llm.NewRegistry(purposes, c.Model.Endpoints)
}
