package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSet_Compiles(t *testing.T) {
	set := DefaultSet()
	require.NoError(t, set.Compile())
	assert.Greater(t, set.Len(), 10)

	// The hard blockers named by policy must all be present.
	for _, id := range []string{"LANG-001", "LANG-002", "COH-001", "FORM-001", "FORM-002", "STRUCT-001"} {
		r := set.Get(id)
		require.NotNil(t, r, id)
		assert.True(t, r.HardBlocker, "%s must be a hard blocker", id)
	}
}

func TestSet_CompileRejectsBadPattern(t *testing.T) {
	set := &Set{Rules: []*Rule{{
		ID:       "X-001",
		Category: CategoryForm,
		Message:  "x",
		Patterns: []string{"("},
	}}}
	assert.Error(t, set.Compile())
}

func TestSet_CompileRejectsDuplicateID(t *testing.T) {
	set := &Set{Rules: []*Rule{
		{ID: "X-001", Category: CategoryForm, Message: "x"},
		{ID: "x-001", Category: CategoryForm, Message: "y"},
	}}
	assert.Error(t, set.Compile())
}

func TestSet_Merge(t *testing.T) {
	base := &Set{Version: "1.0", Rules: []*Rule{
		{ID: "A-001", Category: CategoryForm, Message: "a", Weight: 1},
	}}
	overlay := &Set{Version: "1.1", Rules: []*Rule{
		{ID: "A-001", Category: CategoryForm, Message: "replaced", Weight: 2},
		{ID: "B-001", Category: CategoryEssence, Message: "b", Weight: 1},
	}}

	base.Merge(overlay)

	assert.Equal(t, "1.1", base.Version)
	assert.Equal(t, 2, base.Len())
	assert.Equal(t, "replaced", base.Get("A-001").Message)
}

func TestLoader_LoadWithOverlayFile(t *testing.T) {
	dir := t.TempDir()
	content := `version: "1.2"
rules:
  - id: ORG-001
    category: integrity
    weight: 1.5
    severity: warning
    patterns:
      - '(?i)\bafdeling\b'
    message: "De definitie noemt een organisatieonderdeel: %s."
  - id: LANG-001
    category: form
    weight: 3.0
    severity: error
    hard_blocker: true
    patterns:
      - '(?i)\bgewoon\b'
    message: "Informeel taalgebruik: %s."
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(content), 0o644))

	loader := NewLoader([]string{filepath.Join(dir, "*.yaml")}, nil)
	set, err := loader.Load(DefaultSetName)
	require.NoError(t, err)

	assert.Equal(t, "1.2", set.Version)

	added := set.Get("ORG-001")
	require.NotNil(t, added)
	assert.Equal(t, CategoryIntegrity, added.Category)
	assert.Len(t, added.CompiledPatterns(), 1)

	overridden := set.Get("LANG-001")
	require.NotNil(t, overridden)
	assert.Equal(t, 3.0, overridden.Weight)
}

func TestLoader_NoPatternsYieldsDefaults(t *testing.T) {
	loader := NewLoader(nil, nil)
	set, err := loader.Load(DefaultSetName)
	require.NoError(t, err)
	assert.Equal(t, DefaultSetVersion, set.Version)
	assert.Equal(t, DefaultSet().Len(), set.Len())
}

func TestRule_CompileDefaults(t *testing.T) {
	r := &Rule{ID: "X-001", Category: CategoryForm, Message: "x"}
	require.NoError(t, r.Compile())
	assert.Equal(t, KindPattern, r.Kind)
	assert.Equal(t, 1.0, r.Weight)
	assert.Equal(t, SeverityWarning, r.Severity)
}
