package definition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationRequest asks for a definition of a term within a specific
// organisational and legal context.
type GenerationRequest struct {
	ID       string `json:"id"`
	Term     string `json:"term"`
	Category string `json:"category,omitempty"`

	OrgContext   ContextSet `json:"org_context"`
	LegalContext ContextSet `json:"legal_context"`
	LegalBasis   ContextSet `json:"legal_basis"`

	// LegalBasisNote is a free-form note on the legal basis, carried into
	// the prompt verbatim.
	LegalBasisNote string `json:"legal_basis_note,omitempty"`

	RequestedBy string    `json:"requested_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewGenerationRequest creates a request with a fresh id.
func NewGenerationRequest(term string) *GenerationRequest {
	return &GenerationRequest{
		ID:        uuid.New().String(),
		Term:      strings.TrimSpace(term),
		CreatedAt: time.Now(),
	}
}

// Validate checks the request for the minimum required fields.
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Term) == "" {
		return fmt.Errorf("term is required")
	}
	if r.ID == "" {
		return fmt.Errorf("request id is required")
	}
	return nil
}
