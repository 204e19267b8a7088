// Package validation evaluates candidate definition texts against the active
// rule set and aggregates the per-rule outcomes into a versioned,
// schema-stable result. The engine never lets an internal failure escape as
// an error: callers always receive a schema-compliant Result, degraded if
// necessary.
package validation

import (
	"math"

	"github.com/google/uuid"

	"github.com/lexdef/lexdef/rules"
)

// SchemaVersion is the version tag of the Result wire contract. Consumers
// must be able to parse any 1.x payload.
const SchemaVersion = "1.0"

// Violation is a structured failure reported by one rule.
type Violation struct {
	Rule       string            `json:"rule"`
	Severity   rules.Severity    `json:"severity"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// System carries tracing and diagnostic information. CorrelationID is always
// present, including in degraded results.
type System struct {
	CorrelationID string `json:"correlation_id"`
	DurationMs    int64  `json:"duration_ms,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Result is the versioned validation outcome.
type Result struct {
	SchemaVersion  string             `json:"schema_version"`
	OverallScore   float64            `json:"overall_score"`
	IsAcceptable   bool               `json:"is_acceptable"`
	Violations     []Violation        `json:"violations"`
	PassedRules    []string           `json:"passed_rules"`
	ErroredRules   []string           `json:"errored_rules,omitempty"`
	DetailedScores map[string]float64 `json:"detailed_scores"`
	Degraded       bool               `json:"degraded,omitempty"`
	System         System             `json:"system"`
}

// HasBlocker reports whether any violation carries a hard-blocker rule code.
func (r *Result) HasBlocker(blockers map[string]bool) bool {
	for _, v := range r.Violations {
		if blockers[v.Rule] {
			return true
		}
	}
	return false
}

// Suggestions collects the non-empty improvement suggestions, in violation
// order.
func (r *Result) Suggestions() []string {
	var out []string
	for _, v := range r.Violations {
		if v.Suggestion != "" {
			out = append(out, v.Suggestion)
		}
	}
	return out
}

// EnsureSchemaCompliance normalises a result so that it always satisfies the
// wire contract: schema version and correlation id present, slices and maps
// non-nil, score within [0,1]. It is idempotent and mutates r in place,
// returning it for chaining.
func EnsureSchemaCompliance(r *Result) *Result {
	if r.SchemaVersion == "" {
		r.SchemaVersion = SchemaVersion
	}
	if r.System.CorrelationID == "" {
		r.System.CorrelationID = uuid.New().String()
	}
	if r.Violations == nil {
		r.Violations = []Violation{}
	}
	if r.PassedRules == nil {
		r.PassedRules = []string{}
	}
	if r.DetailedScores == nil {
		r.DetailedScores = map[string]float64{}
	}
	if math.IsNaN(r.OverallScore) || r.OverallScore < 0 {
		r.OverallScore = 0
	}
	if r.OverallScore > 1 {
		r.OverallScore = 1
	}
	return r
}

// NewDegradedResult builds a schema-compliant failure result for the case
// where the engine itself could not complete evaluation.
func NewDegradedResult(correlationID, diagnostic string) *Result {
	r := &Result{
		OverallScore: 0,
		IsAcceptable: false,
		Degraded:     true,
		System: System{
			CorrelationID: correlationID,
			Error:         diagnostic,
		},
	}
	return EnsureSchemaCompliance(r)
}

// roundScore rounds to two decimals, the precision of the wire contract.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// determineAcceptability applies the score threshold. The comparison is
// inclusive: a score exactly at the threshold is acceptable.
func determineAcceptability(score, threshold float64) bool {
	return score >= threshold
}
