// Package storage persists definitions, generation candidates, feedback and
// synonyms. The production store is backed by NATS JetStream KV; a memory
// store backs tests and single-process runs.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/validation"
)

// Candidate is a generated definition text with its validation outcome.
// Rejected candidates are stored too; they feed the feedback loop.
type Candidate struct {
	ID        string             `json:"id"`
	RequestID string             `json:"request_id"`
	Term      string             `json:"term"`
	Text      string             `json:"text"`
	Accepted  bool               `json:"accepted"`
	Enhanced  bool               `json:"enhanced"`
	Result    *validation.Result `json:"result,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewCandidate creates a candidate record with a fresh ID.
func NewCandidate(requestID, term, text string) *Candidate {
	return &Candidate{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Term:      term,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// FeedbackRecord captures why a generation for a term failed. The prompt
// builder replays a term's history so the model stops repeating mistakes.
type FeedbackRecord struct {
	ID         string    `json:"id"`
	Term       string    `json:"term"`
	Text       string    `json:"text"`
	Violations []string  `json:"violations"`
	Score      float64   `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewFeedbackRecord creates a feedback record with a fresh ID.
func NewFeedbackRecord(term, text string, violations []string, score float64) *FeedbackRecord {
	return &FeedbackRecord{
		ID:         uuid.New().String(),
		Term:       term,
		Text:       text,
		Violations: violations,
		Score:      score,
		CreatedAt:  time.Now(),
	}
}

// Repository stores definitions. Established definitions are never mutated;
// changes arrive as new version rows linked through PreviousID.
type Repository interface {
	// Save stores a new definition row. Saving an ID that already exists
	// returns ErrDuplicateKey.
	Save(ctx context.Context, def *definition.Definition) error

	// Get returns the definition with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*definition.Definition, error)

	// FindByTerm returns all definition rows whose term matches
	// case-insensitively, any status, any version.
	FindByTerm(ctx context.Context, term string) ([]*definition.Definition, error)

	// ListVersions returns a definition's version chain ordered from
	// version 1 upward, starting from any row in the chain.
	ListVersions(ctx context.Context, id string) ([]*definition.Definition, error)

	// UpdateStatus transitions a definition's lifecycle status and writes
	// an audit entry. Illegal transitions fail without a write.
	UpdateStatus(ctx context.Context, id string, target definition.Status, actor, reason string) (*definition.Definition, error)
}

// CandidateStore stores generation candidates, accepted and rejected alike.
type CandidateStore interface {
	SaveCandidate(ctx context.Context, c *Candidate) error
	ListCandidates(ctx context.Context, requestID string) ([]*Candidate, error)
}

// FeedbackStore stores per-term generation feedback.
type FeedbackStore interface {
	SaveFeedback(ctx context.Context, rec *FeedbackRecord) error
	ListFeedback(ctx context.Context, term string) ([]*FeedbackRecord, error)
}

// SynonymStore maps terms to their synonym groups.
type SynonymStore interface {
	// Resolve returns all terms in the synonym group of term, excluding
	// term itself. Unknown terms resolve to nothing.
	Resolve(ctx context.Context, term string) ([]string, error)

	// SaveGroup stores a synonym group under its preferred term.
	SaveGroup(ctx context.Context, preferred string, synonyms []string) error
}

// AuditStore records lifecycle transitions.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry *definition.AuditEntry) error
	ListAudit(ctx context.Context, definitionID string) ([]*definition.AuditEntry, error)
}

// Store is the full persistence surface the application wires once.
type Store interface {
	Repository
	CandidateStore
	FeedbackStore
	SynonymStore
	AuditStore
}
