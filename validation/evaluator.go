package validation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/rules"
)

// Input is a validation request: the candidate text plus the request context
// it was generated for.
type Input struct {
	Term     string
	Text     string
	Category string

	OrgContext   definition.ContextSet
	LegalContext definition.ContextSet
	LegalBasis   definition.ContextSet

	// CorrelationID threads tracing through the result. Generated when empty.
	CorrelationID string
}

// outcome is the evaluation of a single rule against one candidate.
type outcome struct {
	ruleID    string
	category  rules.Category
	weight    float64
	passed    bool
	errored   bool
	blocker   bool
	score     float64
	violation *Violation
}

// scoreForSeverity maps a failed rule's severity to its contribution to the
// weighted aggregate. Failures still earn partial credit below the error
// level so a single stylistic slip does not zero the candidate.
func scoreForSeverity(sev rules.Severity) float64 {
	switch sev {
	case rules.SeverityWarning:
		return 0.5
	case rules.SeverityError:
		return 0.2
	default:
		return 0
	}
}

var wordSplitRe = regexp.MustCompile(`\s+`)

// evaluateRule applies one rule to the input. A panic or error inside the
// rule is caught by the caller, not here.
func (e *Engine) evaluateRule(ctx context.Context, r *rules.Rule, in Input) (outcome, error) {
	out := outcome{
		ruleID:   r.ID,
		category: r.Category,
		weight:   r.Weight,
	}

	var matches []string
	var failed bool

	switch r.Kind {
	case rules.KindEmpty:
		failed = strings.TrimSpace(in.Text) == ""

	case rules.KindLength:
		trimmed := strings.TrimSpace(in.Text)
		if len(trimmed) < r.MinLength {
			failed = true
			matches = []string{fmt.Sprintf("%d van minimaal %d tekens", len(trimmed), r.MinLength)}
		}

	case rules.KindStructure:
		failed, matches = checkStructure(r, in.Text)

	case rules.KindCircular:
		if containsTerm(in.Text, in.Term) {
			failed = true
			matches = []string{in.Term}
		}

	case rules.KindUniqueness:
		if e.uniqueness == nil {
			break
		}
		count, err := e.uniqueness.CountActive(ctx, in.Term, in.OrgContext, in.LegalContext, in.LegalBasis)
		if err != nil {
			return out, fmt.Errorf("uniqueness check: %w", err)
		}
		if count > 0 {
			failed = true
			matches = []string{fmt.Sprintf("%d bestaande definitie(s)", count)}
		}

	default: // rules.KindPattern
		matches = matchPatterns(r, in.Text)
		failed = len(matches) > 0
	}

	if !failed {
		out.passed = true
		out.score = 1.0
		return out, nil
	}

	out.score = scoreForSeverity(r.Severity)
	out.blocker = r.HardBlocker
	out.violation = &Violation{
		Rule:       r.ID,
		Severity:   r.Severity,
		Message:    formatMessage(r.Message, matches),
		Suggestion: r.Suggestion,
	}
	return out, nil
}

// matchPatterns scans the text for the rule's detection patterns and returns
// the distinct matched terms, in match order.
func matchPatterns(r *rules.Rule, text string) []string {
	seen := make(map[string]bool)
	var matches []string
	for _, re := range r.CompiledPatterns() {
		for _, m := range re.FindAllString(text, -1) {
			key := strings.ToLower(strings.TrimSpace(m))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			matches = append(matches, strings.TrimSpace(m))
		}
	}
	return matches
}

// checkStructure verifies the minimal genus-differentia shape: enough words
// and at least one qualifying connective. A text that merely resembles a bad
// example but has the required shape still passes.
func checkStructure(r *rules.Rule, text string) (failed bool, matches []string) {
	trimmed := strings.TrimSpace(text)
	words := 0
	if trimmed != "" {
		words = len(wordSplitRe.Split(trimmed, -1))
	}

	minWords := r.MinWords
	if minWords <= 0 {
		minWords = 5
	}
	if words < minWords {
		return true, []string{fmt.Sprintf("%d van minimaal %d woorden", words, minWords)}
	}

	if len(r.CompiledPatterns()) > 0 && len(matchPatterns(r, text)) == 0 {
		return true, []string{"geen onderscheidend kenmerk gevonden"}
	}
	return false, nil
}

// containsTerm reports whether the term (or a multi-word variant of it)
// occurs in the definition text, case-insensitively and on word boundaries.
func containsTerm(text, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return strings.Contains(strings.ToLower(text), strings.ToLower(term))
	}
	return re.MatchString(text)
}

// formatMessage substitutes the matched terms into the rule message. Messages
// without a placeholder are returned as-is.
func formatMessage(msg string, matches []string) string {
	if !strings.Contains(msg, "%s") {
		return msg
	}
	joined := "-"
	if len(matches) > 0 {
		sorted := make([]string, len(matches))
		copy(sorted, matches)
		sort.Strings(sorted)
		joined = strings.Join(sorted, ", ")
	}
	return strings.ReplaceAll(msg, "%s", joined)
}
