package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdef/lexdef/rules"
)

func TestEnsureSchemaCompliance_InjectsCorrelationID(t *testing.T) {
	r := &Result{}
	EnsureSchemaCompliance(r)

	assert.Equal(t, SchemaVersion, r.SchemaVersion)
	assert.NotEmpty(t, r.System.CorrelationID)
	assert.NotNil(t, r.Violations)
	assert.NotNil(t, r.PassedRules)
	assert.NotNil(t, r.DetailedScores)
}

func TestEnsureSchemaCompliance_Idempotent(t *testing.T) {
	r := &Result{OverallScore: 0.5, System: System{CorrelationID: "fixed"}}
	once := *EnsureSchemaCompliance(r)
	twice := *EnsureSchemaCompliance(r)

	assert.Equal(t, once.System.CorrelationID, twice.System.CorrelationID)
	assert.Equal(t, once.OverallScore, twice.OverallScore)
	assert.Equal(t, once.SchemaVersion, twice.SchemaVersion)
}

func TestEnsureSchemaCompliance_ClampsScore(t *testing.T) {
	r := &Result{OverallScore: 1.7}
	EnsureSchemaCompliance(r)
	assert.Equal(t, 1.0, r.OverallScore)

	r = &Result{OverallScore: -0.3}
	EnsureSchemaCompliance(r)
	assert.Equal(t, 0.0, r.OverallScore)
}

func TestNewDegradedResult_IsSchemaCompliant(t *testing.T) {
	r := NewDegradedResult("", "rule set unavailable")

	assert.False(t, r.IsAcceptable)
	assert.True(t, r.Degraded)
	assert.Zero(t, r.OverallScore)
	assert.NotEmpty(t, r.System.CorrelationID)
	assert.Equal(t, "rule set unavailable", r.System.Error)

	// The degraded shape must serialise to a parseable 1.x payload.
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var parsed Result
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, SchemaVersion, parsed.SchemaVersion)
	assert.Equal(t, r.System.CorrelationID, parsed.System.CorrelationID)
}

func TestDetermineAcceptability_InclusiveAtThreshold(t *testing.T) {
	assert.True(t, determineAcceptability(0.75, 0.75))
	assert.True(t, determineAcceptability(0.76, 0.75))
	assert.False(t, determineAcceptability(0.7499999, 0.75))
}

func TestResult_Suggestions(t *testing.T) {
	r := &Result{Violations: []Violation{
		{Rule: "A", Suggestion: "eerste"},
		{Rule: "B"},
		{Rule: "C", Suggestion: "tweede"},
	}}
	assert.Equal(t, []string{"eerste", "tweede"}, r.Suggestions())
}

func TestResult_HasBlocker(t *testing.T) {
	r := &Result{Violations: []Violation{{Rule: "LANG-001", Severity: rules.SeverityError}}}
	assert.True(t, r.HasBlocker(map[string]bool{"LANG-001": true}))
	assert.False(t, r.HasBlocker(map[string]bool{"COH-001": true}))
}
