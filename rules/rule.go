// Package rules defines quality rules for definition texts as data: each rule
// is a declarative record of detection patterns, weight, severity and curated
// examples, evaluated by a single generic evaluator in the validation package.
// The package also provides rule-set loading and a bounded, time-boxed cache.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Category groups rules by the quality aspect they guard.
type Category string

const (
	CategoryEssence   Category = "essence"
	CategoryStructure Category = "structure"
	CategoryIntegrity Category = "integrity"
	CategoryCoherence Category = "coherence"
	CategoryForm      Category = "form"
	CategoryAI        Category = "ai"
)

// Severity classifies how serious a violation of a rule is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Kind selects the evaluation strategy for a rule. Most rules are
// pattern-driven; a few are structural or consult the definition store.
type Kind string

const (
	// KindPattern scans the text for the rule's detection patterns.
	KindPattern Kind = "pattern"
	// KindEmpty fails when the text is empty or whitespace-only.
	KindEmpty Kind = "empty"
	// KindLength fails when the text is shorter than MinLength characters.
	KindLength Kind = "length"
	// KindStructure fails when the text lacks a minimal genus-differentia
	// shape (too few words, or no qualifying clause).
	KindStructure Kind = "structure"
	// KindCircular fails when the term itself appears in the definition text.
	KindCircular Kind = "circular"
	// KindUniqueness warns when the store already holds another definition
	// for the same term and context. Evaluated read-only.
	KindUniqueness Kind = "uniqueness"
)

// Rule is one declarative quality rule. Rules are data, not code: the
// validation engine interprets these records with a generic evaluator.
type Rule struct {
	ID       string   `yaml:"id" json:"id"`
	Category Category `yaml:"category" json:"category"`
	Kind     Kind     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Weight   float64  `yaml:"weight" json:"weight"`
	Severity Severity `yaml:"severity" json:"severity"`

	// HardBlocker denies acceptance regardless of the aggregate score.
	HardBlocker bool `yaml:"hard_blocker,omitempty" json:"hard_blocker,omitempty"`

	// Patterns are regular expressions scanned against the candidate text
	// (KindPattern only).
	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`

	// MinLength is the minimum text length in characters (KindLength only).
	MinLength int `yaml:"min_length,omitempty" json:"min_length,omitempty"`

	// MinWords is the minimum word count (KindStructure only).
	MinWords int `yaml:"min_words,omitempty" json:"min_words,omitempty"`

	// GoodExamples and BadExamples are curated phrases used in feedback and
	// enhancement prompts. They do not affect scoring on their own.
	GoodExamples []string `yaml:"good_examples,omitempty" json:"good_examples,omitempty"`
	BadExamples  []string `yaml:"bad_examples,omitempty" json:"bad_examples,omitempty"`

	// Message is shown when the rule fails; %s receives the matched terms.
	Message string `yaml:"message" json:"message"`

	// Suggestion guides a rewrite when the rule fails.
	Suggestion string `yaml:"suggestion,omitempty" json:"suggestion,omitempty"`

	// Explanation documents the rule for humans.
	Explanation string `yaml:"explanation,omitempty" json:"explanation,omitempty"`

	compiled []*regexp.Regexp
}

// Compile parses the rule's detection patterns. It must be called before the
// rule is evaluated; Set.Compile does this for every rule in a set.
func (r *Rule) Compile() error {
	if r.Kind == "" {
		r.Kind = KindPattern
	}
	if r.Weight <= 0 {
		r.Weight = 1.0
	}
	if r.Severity == "" {
		r.Severity = SeverityWarning
	}
	r.compiled = r.compiled[:0]
	for _, p := range r.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("rule %s: compile pattern %q: %w", r.ID, p, err)
		}
		r.compiled = append(r.compiled, re)
	}
	return nil
}

// CompiledPatterns returns the compiled detection patterns.
func (r *Rule) CompiledPatterns() []*regexp.Regexp {
	return r.compiled
}

// Validate checks that the rule record is well-formed.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	switch r.Category {
	case CategoryEssence, CategoryStructure, CategoryIntegrity, CategoryCoherence, CategoryForm, CategoryAI:
	default:
		return fmt.Errorf("rule %s: unknown category %q", r.ID, r.Category)
	}
	if r.Message == "" {
		return fmt.Errorf("rule %s: message is required", r.ID)
	}
	return nil
}

// Set is an ordered collection of compiled rules.
type Set struct {
	Version string  `yaml:"version" json:"version"`
	Rules   []*Rule `yaml:"rules" json:"rules"`
}

// Compile validates and compiles every rule and sorts the set by rule ID so
// evaluation order is deterministic.
func (s *Set) Compile() error {
	seen := make(map[string]bool, len(s.Rules))
	for _, r := range s.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true
		if err := r.Compile(); err != nil {
			return err
		}
	}
	sort.Slice(s.Rules, func(i, j int) bool { return s.Rules[i].ID < s.Rules[j].ID })
	return nil
}

// Get returns the rule with the given id, or nil.
func (s *Set) Get(id string) *Rule {
	for _, r := range s.Rules {
		if strings.EqualFold(r.ID, id) {
			return r
		}
	}
	return nil
}

// Len returns the number of rules in the set.
func (s *Set) Len() int {
	return len(s.Rules)
}

// Merge overlays other onto s: rules with a matching ID replace the existing
// record, new IDs are appended.
func (s *Set) Merge(other *Set) {
	for _, r := range other.Rules {
		replaced := false
		for i, existing := range s.Rules {
			if strings.EqualFold(existing.ID, r.ID) {
				s.Rules[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			s.Rules = append(s.Rules, r)
		}
	}
	if other.Version != "" {
		s.Version = other.Version
	}
}
