// Package definition holds the core data model for legal and administrative
// term definitions: the definition record itself, its lifecycle, the context
// sets that scope its applicability, and the generation request/outcome types
// exchanged with the API layer.
package definition

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a definition.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusReview      Status = "review"
	StatusEstablished Status = "established"
	StatusArchived    Status = "archived"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusEstablished, StatusArchived:
		return true
	}
	return false
}

// allowedTransitions maps each status to the statuses it may move to.
var allowedTransitions = map[Status][]Status{
	StatusDraft:       {StatusReview, StatusArchived},
	StatusReview:      {StatusDraft, StatusEstablished, StatusArchived},
	StatusEstablished: {StatusArchived},
	StatusArchived:    {},
}

// CanTransition reports whether a status change from s to target is allowed.
func (s Status) CanTransition(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Citation records a source consulted during generation.
type Citation struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Definition is one version of a definition for a term. Established versions
// are never mutated: an update creates a new version linked to its
// predecessor through PreviousID.
type Definition struct {
	ID           string     `json:"id"`
	Term         string     `json:"term"`
	Text         string     `json:"text"`
	Category     string     `json:"category,omitempty"`
	OrgContext   ContextSet `json:"org_context"`
	LegalContext ContextSet `json:"legal_context"`
	LegalBasis   ContextSet `json:"legal_basis"`
	Status       Status     `json:"status"`

	// Version chain. Version starts at 1; PreviousID links to the version
	// this record superseded, empty for the first version.
	Version    int    `json:"version"`
	PreviousID string `json:"previous_id,omitempty"`

	// Provenance.
	Citations []Citation `json:"citations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// New creates a first-version draft definition for a term.
func New(term, text string) *Definition {
	now := time.Now()
	return &Definition{
		ID:        uuid.New().String(),
		Term:      term,
		Text:      text,
		Status:    StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewVersion creates the successor version of d with the given text. The
// successor starts in draft and carries over term, category and contexts.
func (d *Definition) NewVersion(text, actor string) *Definition {
	now := time.Now()
	return &Definition{
		ID:           uuid.New().String(),
		Term:         d.Term,
		Text:         text,
		Category:     d.Category,
		OrgContext:   d.OrgContext,
		LegalContext: d.LegalContext,
		LegalBasis:   d.LegalBasis,
		Status:       StatusDraft,
		Version:      d.Version + 1,
		PreviousID:   d.ID,
		CreatedAt:    now,
		CreatedBy:    actor,
		UpdatedAt:    now,
		UpdatedBy:    actor,
	}
}

// Transition moves the definition to a new status, enforcing the lifecycle
// rules. Callers record the change in the audit trail.
func (d *Definition) Transition(target Status, actor string) error {
	if !target.Valid() {
		return fmt.Errorf("unknown status %q", target)
	}
	if !d.Status.CanTransition(target) {
		return fmt.Errorf("cannot transition definition %s from %s to %s", d.ID, d.Status, target)
	}
	d.Status = target
	d.UpdatedAt = time.Now()
	d.UpdatedBy = actor
	return nil
}

// MatchesContext reports whether the definition's three context sets equal
// the given sets, order-independently.
func (d *Definition) MatchesContext(org, legal, basis ContextSet) bool {
	return d.OrgContext.Equals(org) &&
		d.LegalContext.Equals(legal) &&
		d.LegalBasis.Equals(basis)
}

// AuditEntry records a status transition for the audit trail.
type AuditEntry struct {
	ID           string    `json:"id"`
	DefinitionID string    `json:"definition_id"`
	From         Status    `json:"from"`
	To           Status    `json:"to"`
	Actor        string    `json:"actor"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}

// NewAuditEntry creates an audit entry for a status transition.
func NewAuditEntry(definitionID string, from, to Status, actor, reason string) *AuditEntry {
	return &AuditEntry{
		ID:           uuid.New().String(),
		DefinitionID: definitionID,
		From:         from,
		To:           to,
		Actor:        actor,
		Reason:       reason,
		At:           time.Now(),
	}
}
