package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdef/lexdef/llm"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.75, cfg.Validation.HardMinScore)
	assert.Contains(t, cfg.Model.Endpoints, "local")
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no endpoints", func(c *Config) { c.Model.Endpoints = nil }},
		{"endpoint without provider", func(c *Config) { c.Model.Endpoints["local"].Provider = "" }},
		{"endpoint without model", func(c *Config) { c.Model.Endpoints["local"].Model = "" }},
		{"purpose references unknown endpoint", func(c *Config) {
			c.Model.Purposes["define"] = &llm.PurposeConfig{Preferred: []string{"nope"}}
		}},
		{"temperature out of range", func(c *Config) { c.Model.Temperature = 1.5 }},
		{"threshold out of range", func(c *Config) { c.Validation.HardMinScore = 1.2 }},
		{"category minimum out of range", func(c *Config) {
			c.Validation.CategoryMinimums = map[string]float64{"essence": -0.1}
		}},
		{"cache capacity zero", func(c *Config) { c.Rules.CacheCapacity = 0 }},
		{"knowledge enabled without providers", func(c *Config) { c.Knowledge.Enabled = true }},
		{"empty server addr", func(c *Config) { c.Server.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMergeOverlaysNonZeroValues(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Model: ModelConfig{
			Endpoints: map[string]*llm.EndpointConfig{
				"cloud": {Provider: "anthropic", Model: "claude-sonnet-4-5"},
			},
			Temperature: 0.4,
		},
		Validation: ValidationConfig{HardMinScore: 0.8, Workers: 4},
		NATS:       NATSConfig{URL: "nats://localhost:4222"},
	})

	assert.Contains(t, base.Model.Endpoints, "local", "merge adds, does not replace")
	assert.Contains(t, base.Model.Endpoints, "cloud")
	assert.Equal(t, 0.4, base.Model.Temperature)
	assert.Equal(t, 0.8, base.Validation.HardMinScore)
	assert.Equal(t, 4, base.Validation.Workers)
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
	assert.Equal(t, 3*time.Minute, base.Model.Timeout, "untouched values keep defaults")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexdef.yaml")
	content := `
model:
  endpoints:
    cloud:
      provider: anthropic
      model: claude-sonnet-4-5
      max_tokens: 1024
  purposes:
    define:
      preferred: [cloud]
validation:
  hard_min_score: 0.8
  category_minimums:
    essence: 0.6
rules:
  patterns:
    - /etc/lexdef/rules/*.yaml
  cache_capacity: 8
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	overlay, err := LoadFromFile(path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Merge(overlay)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "anthropic", cfg.Model.Endpoints["cloud"].Provider)
	assert.Equal(t, []string{"cloud"}, cfg.Model.Purposes["define"].Preferred)
	assert.Equal(t, 0.8, cfg.Validation.HardMinScore)
	assert.Equal(t, 0.6, cfg.Validation.CategoryMinimums["essence"])
	assert.Equal(t, 8, cfg.Rules.CacheCapacity)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":7070"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", loaded.Server.Addr)
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	registry := cfg.Registry()
	require.NotNil(t, registry.GetEndpoint("local"))
	assert.Equal(t, []string{"local"}, registry.Chain(llm.PurposeDefine))
}
