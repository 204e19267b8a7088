// Package duplicate implements the pre-generation duplicate check: before a
// new definition is generated, the gate decides whether an equivalent
// definition already exists and what to do about it.
package duplicate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lexdef/lexdef/definition"
)

// Action is the gate's decision.
type Action string

const (
	// ActionProceed means no equivalent definition exists; generate a new one.
	ActionProceed Action = "PROCEED"
	// ActionUseExisting means an established equivalent exists; reuse it.
	ActionUseExisting Action = "USE_EXISTING"
	// ActionUpdateExisting means a draft or review equivalent exists; update
	// it instead of creating a parallel definition.
	ActionUpdateExisting Action = "UPDATE_EXISTING"
)

// CheckResult is the outcome of a duplicate check.
type CheckResult struct {
	Action   Action                 `json:"action"`
	Existing *definition.Definition `json:"existing,omitempty"`
}

// SynonymRegistry resolves a term to its equivalence set. The returned set
// includes the canonical (preferred) term; it is resolved once per check and
// treated as static for the duration of the call.
type SynonymRegistry interface {
	Resolve(ctx context.Context, term string) ([]string, error)
}

// Finder is the read-only slice of the definition store the gate needs.
type Finder interface {
	// FindByTerm returns all definition versions whose term equals the given
	// term case-insensitively.
	FindByTerm(ctx context.Context, term string) ([]*definition.Definition, error)
}

// Gate decides whether generation should proceed for a request.
type Gate struct {
	finder   Finder
	synonyms SynonymRegistry
	logger   *slog.Logger
}

// NewGate creates a duplicate gate. synonyms may be nil; the gate then
// matches on the literal term only.
func NewGate(finder Finder, synonyms SynonymRegistry, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{finder: finder, synonyms: synonyms, logger: logger}
}

// Check looks for an existing definition equivalent to the request: same term
// or registered synonym (case-insensitive), identical context sets
// (order-independent) and matching category. Archived definitions never
// match. When multiple versions match, the highest version wins.
func (g *Gate) Check(ctx context.Context, req *definition.GenerationRequest) (*CheckResult, error) {
	terms, err := g.equivalentTerms(ctx, req.Term)
	if err != nil {
		return nil, fmt.Errorf("resolve synonyms for %q: %w", req.Term, err)
	}

	var match *definition.Definition
	for _, term := range terms {
		candidates, err := g.finder.FindByTerm(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("find definitions for %q: %w", term, err)
		}
		for _, d := range candidates {
			if !g.matches(d, req) {
				continue
			}
			if match == nil || d.Version > match.Version {
				match = d
			}
		}
	}

	if match == nil {
		return &CheckResult{Action: ActionProceed}, nil
	}

	action := ActionUpdateExisting
	if match.Status == definition.StatusEstablished {
		action = ActionUseExisting
	}

	g.logger.Debug("Duplicate check matched existing definition",
		"request_term", req.Term,
		"matched_term", match.Term,
		"definition_id", match.ID,
		"status", match.Status,
		"action", action)

	return &CheckResult{Action: action, Existing: match}, nil
}

// equivalentTerms returns the request term plus its registered synonyms,
// de-duplicated case-insensitively.
func (g *Gate) equivalentTerms(ctx context.Context, term string) ([]string, error) {
	terms := []string{term}
	if g.synonyms == nil {
		return terms, nil
	}

	resolved, err := g.synonyms.Resolve(ctx, term)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{strings.ToLower(term): true}
	for _, t := range resolved {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, t)
	}
	return terms, nil
}

// matches applies the equivalence rule to one candidate definition.
func (g *Gate) matches(d *definition.Definition, req *definition.GenerationRequest) bool {
	if d.Status == definition.StatusArchived {
		return false
	}
	if req.Category != "" && !strings.EqualFold(d.Category, req.Category) {
		return false
	}
	return d.MatchesContext(req.OrgContext, req.LegalContext, req.LegalBasis)
}
