package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lexdef/lexdef/definition"
)

// MemoryStore is an in-process Store for tests and single-node runs. It also
// backs the duplicate gate's Finder and the uniqueness validation rule.
type MemoryStore struct {
	mu          sync.RWMutex
	definitions map[string]*definition.Definition
	candidates  map[string]*Candidate
	feedback    []*FeedbackRecord
	synonyms    map[string]synonymGroup
	audit       []*definition.AuditEntry
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		definitions: make(map[string]*definition.Definition),
		candidates:  make(map[string]*Candidate),
		synonyms:    make(map[string]synonymGroup),
	}
}

// Save stores a new definition row.
func (s *MemoryStore) Save(_ context.Context, def *definition.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.definitions[def.ID]; exists {
		return fmt.Errorf("definition %s: %w", def.ID, ErrDuplicateKey)
	}
	cp := *def
	s.definitions[def.ID] = &cp
	return nil
}

// Get retrieves a definition by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*definition.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *def
	return &cp, nil
}

// FindByTerm returns all rows matching the term case-insensitively.
func (s *MemoryStore) FindByTerm(_ context.Context, term string) ([]*definition.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*definition.Definition
	for _, def := range s.definitions {
		if strings.EqualFold(def.Term, term) {
			cp := *def
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// ListVersions walks the version chain containing id, oldest first.
func (s *MemoryStore) ListVersions(ctx context.Context, id string) ([]*definition.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, ok := s.definitions[id]
	if !ok {
		return nil, ErrNotFound
	}

	root := start
	for root.PreviousID != "" {
		prev, ok := s.definitions[root.PreviousID]
		if !ok {
			break
		}
		root = prev
	}

	successor := make(map[string]*definition.Definition, len(s.definitions))
	for _, def := range s.definitions {
		if def.PreviousID != "" {
			successor[def.PreviousID] = def
		}
	}

	var chain []*definition.Definition
	for cur := root; cur != nil; cur = successor[cur.ID] {
		cp := *cur
		chain = append(chain, &cp)
	}
	return chain, nil
}

// UpdateStatus transitions a definition and appends an audit entry.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, target definition.Status, actor, reason string) (*definition.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.definitions[id]
	if !ok {
		return nil, ErrNotFound
	}

	from := def.Status
	if err := def.Transition(target, actor); err != nil {
		return nil, err
	}
	s.audit = append(s.audit, definition.NewAuditEntry(id, from, target, actor, reason))

	cp := *def
	return &cp, nil
}

// SaveCandidate stores a generation candidate.
func (s *MemoryStore) SaveCandidate(_ context.Context, c *Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.candidates[c.ID]; exists {
		return fmt.Errorf("candidate %s: %w", c.ID, ErrDuplicateKey)
	}
	cp := *c
	s.candidates[c.ID] = &cp
	return nil
}

// ListCandidates returns candidates for a request, oldest first.
func (s *MemoryStore) ListCandidates(_ context.Context, requestID string) ([]*Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Candidate
	for _, c := range s.candidates {
		if c.RequestID == requestID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveFeedback stores a feedback record.
func (s *MemoryStore) SaveFeedback(_ context.Context, rec *FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.feedback = append(s.feedback, &cp)
	return nil
}

// ListFeedback returns a term's feedback history, oldest first.
func (s *MemoryStore) ListFeedback(_ context.Context, term string) ([]*FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*FeedbackRecord
	for _, rec := range s.feedback {
		if strings.EqualFold(rec.Term, term) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// SaveGroup stores a synonym group under its preferred term.
func (s *MemoryStore) SaveGroup(_ context.Context, preferred string, synonyms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.synonyms[synonymKey(preferred)] = synonymGroup{
		Preferred: preferred,
		Synonyms:  append([]string(nil), synonyms...),
	}
	return nil
}

// Resolve returns the other members of the term's synonym group.
func (s *MemoryStore) Resolve(_ context.Context, term string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, group := range s.synonyms {
		members := append([]string{group.Preferred}, group.Synonyms...)
		found := false
		for _, m := range members {
			if strings.EqualFold(m, term) {
				found = true
				break
			}
		}
		if !found {
			continue
		}

		var out []string
		for _, m := range members {
			if !strings.EqualFold(m, term) {
				out = append(out, m)
			}
		}
		return out, nil
	}
	return nil, nil
}

// AppendAudit stores a lifecycle audit entry.
func (s *MemoryStore) AppendAudit(_ context.Context, entry *definition.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.audit = append(s.audit, &cp)
	return nil
}

// ListAudit returns a definition's audit trail, oldest first.
func (s *MemoryStore) ListAudit(_ context.Context, definitionID string) ([]*definition.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*definition.AuditEntry
	for _, entry := range s.audit {
		if entry.DefinitionID == definitionID {
			cp := *entry
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CountActive counts non-archived definitions for the term within the same
// context. Backs the uniqueness validation rule.
func (s *MemoryStore) CountActive(ctx context.Context, term string, org, legal, basis definition.ContextSet) (int, error) {
	defs, err := s.FindByTerm(ctx, term)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, def := range defs {
		if def.Status == definition.StatusArchived {
			continue
		}
		if def.MatchesContext(org, legal, basis) {
			count++
		}
	}
	return count, nil
}
