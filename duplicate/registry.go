package duplicate

import (
	"context"
	"strings"
)

// SynonymSet groups a preferred (canonical) term with its accepted
// alternates. Exactly one preferred term exists per set; non-preferred
// equivalents still match for duplicate purposes.
type SynonymSet struct {
	Preferred string   `json:"preferred"`
	Synonyms  []string `json:"synonyms"`
}

// Contains reports whether term is the preferred term or one of the
// synonyms, case-insensitively.
func (s *SynonymSet) Contains(term string) bool {
	if strings.EqualFold(s.Preferred, term) {
		return true
	}
	for _, syn := range s.Synonyms {
		if strings.EqualFold(syn, term) {
			return true
		}
	}
	return false
}

// Terms returns the preferred term followed by the synonyms.
func (s *SynonymSet) Terms() []string {
	out := make([]string, 0, len(s.Synonyms)+1)
	out = append(out, s.Preferred)
	out = append(out, s.Synonyms...)
	return out
}

// StaticRegistry is an in-memory SynonymRegistry, used in tests and for
// deployments that maintain synonyms in configuration rather than a store.
type StaticRegistry struct {
	sets []SynonymSet
}

// NewStaticRegistry creates a registry over the given synonym sets.
func NewStaticRegistry(sets ...SynonymSet) *StaticRegistry {
	return &StaticRegistry{sets: sets}
}

// Resolve returns the full equivalence set for term, or just the term itself
// when it belongs to no set.
func (r *StaticRegistry) Resolve(_ context.Context, term string) ([]string, error) {
	for i := range r.sets {
		if r.sets[i].Contains(term) {
			return r.sets[i].Terms(), nil
		}
	}
	return []string{term}, nil
}

// Preferred returns the preferred term for the given term, or the term itself
// when unregistered.
func (r *StaticRegistry) Preferred(term string) string {
	for i := range r.sets {
		if r.sets[i].Contains(term) {
			return r.sets[i].Preferred
		}
	}
	return term
}
