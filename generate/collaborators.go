// Package generate drives the definition generation pipeline: prompt, model
// call, cleanup, validation, optional enhancement, persistence and feedback.
package generate

import (
	"context"
	"time"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/knowledge"
	"github.com/lexdef/lexdef/llm"
	"github.com/lexdef/lexdef/storage"
	"github.com/lexdef/lexdef/validation"
)

// Prompt is an assembled generation prompt.
type Prompt struct {
	Messages      []llm.Message
	TokenEstimate int
	SectionsUsed  []string
}

// PromptBuilder assembles the prompt from request context, retrieved
// knowledge and prior feedback.
type PromptBuilder interface {
	Build(req *definition.GenerationRequest, snippets []knowledge.Snippet, history []*storage.FeedbackRecord) Prompt
}

// CleanResult is normalized model output.
type CleanResult struct {
	Text    string
	Changed bool
}

// TextCleaner normalizes raw model output deterministically.
type TextCleaner interface {
	Clean(text string) CleanResult
}

// Completer is the LLM call surface the orchestrator depends on.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Validator scores a candidate definition.
type Validator interface {
	Validate(ctx context.Context, in validation.Input) *validation.Result
}

// Enhancer rewrites a failed candidate guided by its violations.
type Enhancer interface {
	Enhance(ctx context.Context, req *definition.GenerationRequest, text string, result *validation.Result) (string, error)
}

// SnippetSource retrieves background knowledge for a term.
type SnippetSource interface {
	Lookup(ctx context.Context, term string, tier knowledge.Tier) []knowledge.Snippet
}

// FeedbackStore reads and writes per-term generation feedback.
type FeedbackStore interface {
	SaveFeedback(ctx context.Context, rec *storage.FeedbackRecord) error
	ListFeedback(ctx context.Context, term string) ([]*storage.FeedbackRecord, error)
}

// CompletionEvent reports one finished generation attempt.
type CompletionEvent struct {
	RequestID    string        `json:"request_id"`
	Term         string        `json:"term"`
	Success      bool          `json:"success"`
	Enhanced     bool          `json:"enhanced"`
	TokensUsed   int           `json:"tokens_used"`
	Model        string        `json:"model,omitempty"`
	SectionsUsed []string      `json:"sections_used,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// MonitoringSink receives completion events. Sinks are best-effort: the
// orchestrator guards every call and a failing sink never fails a request.
type MonitoringSink interface {
	Completion(ctx context.Context, ev CompletionEvent) error
}

// nopSnippetSource returns no snippets.
type nopSnippetSource struct{}

func (nopSnippetSource) Lookup(context.Context, string, knowledge.Tier) []knowledge.Snippet {
	return nil
}

// nopFeedbackStore stores nothing and remembers nothing.
type nopFeedbackStore struct{}

func (nopFeedbackStore) SaveFeedback(context.Context, *storage.FeedbackRecord) error { return nil }
func (nopFeedbackStore) ListFeedback(context.Context, string) ([]*storage.FeedbackRecord, error) {
	return nil, nil
}

// nopMonitoringSink drops events.
type nopMonitoringSink struct{}

func (nopMonitoringSink) Completion(context.Context, CompletionEvent) error { return nil }
