package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/lexdef/lexdef/definition"
)

// Bucket names.
const (
	BucketDefinitions = "LEXDEF_DEFINITIONS"
	BucketCandidates  = "LEXDEF_CANDIDATES"
	BucketFeedback    = "LEXDEF_FEEDBACK"
	BucketSynonyms    = "LEXDEF_SYNONYMS"
	BucketAudit       = "LEXDEF_AUDIT"
)

// KVStore implements Store on NATS JetStream KV buckets.
type KVStore struct {
	definitions jetstream.KeyValue
	candidates  jetstream.KeyValue
	feedback    jetstream.KeyValue
	synonyms    jetstream.KeyValue
	audit       jetstream.KeyValue
}

// NewKVStore creates a store over the given JetStream context, creating the
// KV buckets if needed.
func NewKVStore(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	buckets := make(map[string]jetstream.KeyValue, 5)
	for _, name := range []string{
		BucketDefinitions, BucketCandidates, BucketFeedback,
		BucketSynonyms, BucketAudit,
	} {
		kv, err := getOrCreateBucket(ctx, js, name)
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", name, err)
		}
		buckets[name] = kv
	}

	return &KVStore{
		definitions: buckets[BucketDefinitions],
		candidates:  buckets[BucketCandidates],
		feedback:    buckets[BucketFeedback],
		synonyms:    buckets[BucketSynonyms],
		audit:       buckets[BucketAudit],
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("lexdef %s storage", strings.ToLower(strings.TrimPrefix(name, "LEXDEF_"))),
		History:     5,
	})
}

// Save stores a new definition row. Existing rows are never overwritten.
func (s *KVStore) Save(ctx context.Context, def *definition.Definition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}

	if _, err := s.definitions.Create(ctx, def.ID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("definition %s: %w", def.ID, ErrDuplicateKey)
		}
		return fmt.Errorf("store definition: %w", err)
	}
	return nil
}

// Get retrieves a definition by ID.
func (s *KVStore) Get(ctx context.Context, id string) (*definition.Definition, error) {
	entry, err := s.definitions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get definition: %w", err)
	}

	var def definition.Definition
	if err := json.Unmarshal(entry.Value(), &def); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	return &def, nil
}

// FindByTerm scans all definitions for a case-insensitive term match.
func (s *KVStore) FindByTerm(ctx context.Context, term string) ([]*definition.Definition, error) {
	defs, err := s.scanDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	var out []*definition.Definition
	for _, def := range defs {
		if strings.EqualFold(def.Term, term) {
			out = append(out, def)
		}
	}
	return out, nil
}

// ListVersions walks the version chain containing id, oldest first.
func (s *KVStore) ListVersions(ctx context.Context, id string) ([]*definition.Definition, error) {
	start, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	defs, err := s.scanDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	// Find the chain root by following PreviousID backwards.
	byID := make(map[string]*definition.Definition, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}
	root := start
	for root.PreviousID != "" {
		prev, ok := byID[root.PreviousID]
		if !ok {
			break
		}
		root = prev
	}

	// Walk forward from the root.
	successor := make(map[string]*definition.Definition, len(defs))
	for _, def := range defs {
		if def.PreviousID != "" {
			successor[def.PreviousID] = def
		}
	}
	chain := []*definition.Definition{root}
	for cur := root; ; {
		next, ok := successor[cur.ID]
		if !ok {
			break
		}
		chain = append(chain, next)
		cur = next
	}
	return chain, nil
}

// UpdateStatus transitions a definition and appends an audit entry.
func (s *KVStore) UpdateStatus(ctx context.Context, id string, target definition.Status, actor, reason string) (*definition.Definition, error) {
	def, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := def.Status
	if err := def.Transition(target, actor); err != nil {
		return nil, err
	}

	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	if _, err := s.definitions.Put(ctx, def.ID, data); err != nil {
		return nil, fmt.Errorf("update definition: %w", err)
	}

	if err := s.AppendAudit(ctx, definition.NewAuditEntry(def.ID, from, target, actor, reason)); err != nil {
		return nil, err
	}
	return def, nil
}

// SaveCandidate stores a generation candidate.
func (s *KVStore) SaveCandidate(ctx context.Context, c *Candidate) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}
	if _, err := s.candidates.Create(ctx, c.ID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("candidate %s: %w", c.ID, ErrDuplicateKey)
		}
		return fmt.Errorf("store candidate: %w", err)
	}
	return nil
}

// ListCandidates returns candidates for a request, oldest first.
func (s *KVStore) ListCandidates(ctx context.Context, requestID string) ([]*Candidate, error) {
	keys, err := s.keys(ctx, s.candidates)
	if err != nil {
		return nil, err
	}

	var out []*Candidate
	for _, key := range keys {
		entry, err := s.candidates.Get(ctx, key)
		if err != nil {
			continue
		}
		var c Candidate
		if err := json.Unmarshal(entry.Value(), &c); err != nil {
			continue
		}
		if c.RequestID == requestID {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveFeedback stores a feedback record.
func (s *KVStore) SaveFeedback(ctx context.Context, rec *FeedbackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	if _, err := s.feedback.Create(ctx, rec.ID, data); err != nil {
		return fmt.Errorf("store feedback: %w", err)
	}
	return nil
}

// ListFeedback returns a term's feedback history, oldest first.
func (s *KVStore) ListFeedback(ctx context.Context, term string) ([]*FeedbackRecord, error) {
	keys, err := s.keys(ctx, s.feedback)
	if err != nil {
		return nil, err
	}

	var out []*FeedbackRecord
	for _, key := range keys {
		entry, err := s.feedback.Get(ctx, key)
		if err != nil {
			continue
		}
		var rec FeedbackRecord
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			continue
		}
		if strings.EqualFold(rec.Term, term) {
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// synonymGroup is the stored synonym record.
type synonymGroup struct {
	Preferred string   `json:"preferred"`
	Synonyms  []string `json:"synonyms"`
}

// SaveGroup stores a synonym group under its preferred term.
func (s *KVStore) SaveGroup(ctx context.Context, preferred string, synonyms []string) error {
	data, err := json.Marshal(synonymGroup{Preferred: preferred, Synonyms: synonyms})
	if err != nil {
		return fmt.Errorf("marshal synonym group: %w", err)
	}
	if _, err := s.synonyms.Put(ctx, synonymKey(preferred), data); err != nil {
		return fmt.Errorf("store synonym group: %w", err)
	}
	return nil
}

// Resolve returns the other members of the term's synonym group.
func (s *KVStore) Resolve(ctx context.Context, term string) ([]string, error) {
	keys, err := s.keys(ctx, s.synonyms)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		entry, err := s.synonyms.Get(ctx, key)
		if err != nil {
			continue
		}
		var group synonymGroup
		if err := json.Unmarshal(entry.Value(), &group); err != nil {
			continue
		}

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
func (s *KVStore) AppendAudit(ctx context.Context, entry *definition.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := s.audit.Create(ctx, entry.ID, data); err != nil {
		return fmt.Errorf("store audit entry: %w", err)
	}
	return nil
}

// ListAudit returns a definition's audit trail, oldest first.
func (s *KVStore) ListAudit(ctx context.Context, definitionID string) ([]*definition.AuditEntry, error) {
	keys, err := s.keys(ctx, s.audit)
	if err != nil {
		return nil, err
	}

	var out []*definition.AuditEntry
	for _, key := range keys {
		entry, err := s.audit.Get(ctx, key)
		if err != nil {
			continue
		}
		var rec definition.AuditEntry
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			continue
		}
		if rec.DefinitionID == definitionID {
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// CountActive counts non-archived definitions for the term within the same
// context. Backs the uniqueness validation rule.
func (s *KVStore) CountActive(ctx context.Context, term string, org, legal, basis definition.ContextSet) (int, error) {
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

// scanDefinitions loads every definition row.
func (s *KVStore) scanDefinitions(ctx context.Context) ([]*definition.Definition, error) {
	keys, err := s.keys(ctx, s.definitions)
	if err != nil {
		return nil, err
	}

	out := make([]*definition.Definition, 0, len(keys))
	for _, key := range keys {
		entry, err := s.definitions.Get(ctx, key)
		if err != nil {
			continue
		}
		var def definition.Definition
		if err := json.Unmarshal(entry.Value(), &def); err != nil {
			continue
		}
		out = append(out, &def)
	}
	return out, nil
}

func (s *KVStore) keys(ctx context.Context, kv jetstream.KeyValue) ([]string, error) {
	keys, err := kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// synonymKey normalizes a preferred term to a KV-safe key.
func synonymKey(term string) string {
	key := strings.ToLower(strings.TrimSpace(term))
	key = strings.ReplaceAll(key, " ", "_")
	return key
}
