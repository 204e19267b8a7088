package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/knowledge"
	"github.com/lexdef/lexdef/llm"
	"github.com/lexdef/lexdef/storage"
	"github.com/lexdef/lexdef/validation"
)

// State is a terminal pipeline state.
type State string

const (
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Outcome is the full result of one generation run.
type Outcome struct {
	State     State              `json:"state"`
	RequestID string             `json:"request_id"`
	Term      string             `json:"term"`
	Text      string             `json:"text,omitempty"`
	Enhanced  bool               `json:"enhanced"`
	Cleaned   bool               `json:"cleaned"`
	Model     string             `json:"model,omitempty"`
	Result    *validation.Result `json:"validation,omitempty"`
	Candidate *storage.Candidate `json:"-"`
	Error     string             `json:"error,omitempty"`
}

// Orchestrator drives a generation request through prompt, model, cleanup,
// validation, one optional enhancement cycle, persistence and feedback.
type Orchestrator struct {
	completer  Completer
	validator  Validator
	candidates storage.CandidateStore

	prompts    PromptBuilder
	cleaner    TextCleaner
	enhancer   Enhancer
	snippets   SnippetSource
	feedback   FeedbackStore
	monitoring MonitoringSink

	temperature *float64
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEnhancer enables the enhancement cycle.
func WithEnhancer(e Enhancer) Option {
	return func(o *Orchestrator) { o.enhancer = e }
}

// WithSnippetSource enables knowledge retrieval.
func WithSnippetSource(s SnippetSource) Option {
	return func(o *Orchestrator) { o.snippets = s }
}

// WithFeedbackStore enables the feedback loop.
func WithFeedbackStore(f FeedbackStore) Option {
	return func(o *Orchestrator) { o.feedback = f }
}

// WithMonitoringSink sets the completion event sink.
func WithMonitoringSink(m MonitoringSink) Option {
	return func(o *Orchestrator) { o.monitoring = m }
}

// WithPromptBuilder replaces the default prompt builder.
func WithPromptBuilder(b PromptBuilder) Option {
	return func(o *Orchestrator) { o.prompts = b }
}

// WithCleaner replaces the default cleaner.
func WithCleaner(c TextCleaner) Option {
	return func(o *Orchestrator) { o.cleaner = c }
}

// WithTemperature sets the sampling temperature for model calls.
func WithTemperature(t float64) Option {
	return func(o *Orchestrator) { o.temperature = &t }
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator wires the pipeline. Completer, validator and candidate
// store are required; the rest default to no-ops.
func NewOrchestrator(completer Completer, validator Validator, candidates storage.CandidateStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		completer:  completer,
		validator:  validator,
		candidates: candidates,
		prompts:    NewPromptBuilder(),
		cleaner:    NewCleaner(),
		snippets:   nopSnippetSource{},
		feedback:   nopFeedbackStore{},
		monitoring: nopMonitoringSink{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline for one request. The returned Outcome is always
// non-nil; pipeline failures land in Outcome.State, not in the error value,
// which is reserved for invalid requests.
func (o *Orchestrator) Run(ctx context.Context, req *definition.GenerationRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	start := time.Now()
	outcome := &Outcome{State: StateFailed, RequestID: req.ID, Term: req.Term}

	snippets := o.snippets.Lookup(ctx, req.Term, knowledge.TierInteractive)

	history, err := o.feedback.ListFeedback(ctx, req.Term)
	if err != nil {
		o.logger.Warn("Feedback history unavailable, continuing without",
			"term", req.Term, "error", err)
		history = nil
	}

	prompt := o.prompts.Build(req, snippets, history)
	o.logger.Debug("Prompt assembled",
		"request_id", req.ID,
		"token_estimate", prompt.TokenEstimate,
		"sections", prompt.SectionsUsed)

	// Generate. The client retries transient failures itself; exhaustion is
	// a Failed outcome and validation never runs.
	resp, err := o.completer.Complete(ctx, llm.Request{
		Purpose:     llm.PurposeDefine,
		Messages:    prompt.Messages,
		Temperature: o.temperature,
	})
	if err != nil {
		outcome.Error = fmt.Sprintf("generation failed: %v", err)
		o.logger.Error("Generation failed", "request_id", req.ID, "term", req.Term, "error", err)
		o.emitCompletion(ctx, req, prompt, outcome, nil, start)
		return outcome, nil
	}
	outcome.Model = resp.Model

	cleaned, result := o.cleanAndValidate(ctx, req, resp.Content)
	outcome.Text = cleaned.Text
	outcome.Cleaned = cleaned.Changed
	outcome.Result = result

	// One enhancement cycle at most.
	if !result.IsAcceptable && !result.Degraded && o.enhancer != nil {
		revised, err := o.enhancer.Enhance(ctx, req, cleaned.Text, result)
		if err != nil {
			o.logger.Warn("Enhancement failed, keeping first candidate",
				"request_id", req.ID, "error", err)
		} else {
			outcome.Enhanced = true
			cleaned, result = o.cleanAndValidate(ctx, req, revised)
			outcome.Text = cleaned.Text
			outcome.Result = result
		}
	}

	if result.IsAcceptable {
		outcome.State = StateSucceeded
	} else {
		outcome.Error = "validation rejected the candidate"
	}

	o.persist(ctx, req, outcome, resp)

	if outcome.State == StateFailed {
		o.recordFeedback(ctx, req, outcome)
	}

	o.emitCompletion(ctx, req, prompt, outcome, resp, start)
	return outcome, nil
}

// cleanAndValidate runs Clean and Validate behind a recover boundary. A
// panic in either step yields a degraded, unacceptable result instead of
// taking down the request.
func (o *Orchestrator) cleanAndValidate(ctx context.Context, req *definition.GenerationRequest, raw string) (cleaned CleanResult, result *validation.Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Clean/validate step panicked",
				"request_id", req.ID, "panic", r)
			if cleaned.Text == "" {
				cleaned = CleanResult{Text: raw}
			}
			result = validation.NewDegradedResult(req.ID, fmt.Sprintf("pipeline step panicked: %v", r))
		}
	}()

	cleaned = o.cleaner.Clean(raw)
	result = o.validator.Validate(ctx, validation.Input{
		Term:          req.Term,
		Text:          cleaned.Text,
		Category:      req.Category,
		OrgContext:    req.OrgContext,
		LegalContext:  req.LegalContext,
		LegalBasis:    req.LegalBasis,
		CorrelationID: req.ID,
	})
	return cleaned, result
}

// persist saves the candidate whatever the outcome. Rejected candidates stay
// around for the feedback loop and later analysis.
func (o *Orchestrator) persist(ctx context.Context, req *definition.GenerationRequest, outcome *Outcome, resp *llm.Response) {
	candidate := storage.NewCandidate(req.ID, req.Term, outcome.Text)
	candidate.Accepted = outcome.State == StateSucceeded
	candidate.Enhanced = outcome.Enhanced
	candidate.Result = outcome.Result

	if err := o.candidates.SaveCandidate(ctx, candidate); err != nil {
		o.logger.Error("Candidate persistence failed",
			"request_id", req.ID, "error", err)
		return
	}
	outcome.Candidate = candidate
}

// recordFeedback hands the failure to the feedback store. Best effort.
func (o *Orchestrator) recordFeedback(ctx context.Context, req *definition.GenerationRequest, outcome *Outcome) {
	if outcome.Result == nil {
		return
	}

	violations := make([]string, 0, len(outcome.Result.Violations))
	for _, v := range outcome.Result.Violations {
		violations = append(violations, v.Rule)
	}

	rec := storage.NewFeedbackRecord(req.Term, outcome.Text, violations, outcome.Result.OverallScore)
	if err := o.feedback.SaveFeedback(ctx, rec); err != nil {
		o.logger.Warn("Feedback recording failed", "request_id", req.ID, "error", err)
	}
}

// emitCompletion sends the completion event. The sink call is guarded: a
// panicking or failing sink is logged and swallowed.
func (o *Orchestrator) emitCompletion(ctx context.Context, req *definition.GenerationRequest, prompt Prompt, outcome *Outcome, resp *llm.Response, start time.Time) {
	var tokens any
	var model string
	if resp != nil {
		tokens = resp.Usage.TotalTokens
		model = resp.Model
	}

	ev := CompletionEvent{
		RequestID:    req.ID,
		Term:         req.Term,
		Success:      outcome.State == StateSucceeded,
		Enhanced:     outcome.Enhanced,
		TokensUsed:   coerceTokens(tokens),
		Model:        model,
		SectionsUsed: prompt.SectionsUsed,
		Elapsed:      time.Since(start),
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("Monitoring sink panicked", "request_id", req.ID, "panic", r)
		}
	}()
	if err := o.monitoring.Completion(ctx, ev); err != nil {
		o.logger.Warn("Monitoring sink failed", "request_id", req.ID, "error", err)
	}
}

// coerceTokens normalizes a model-reported token count to an int. Backends
// report ints, floats, numeric strings or nothing at all.
func coerceTokens(v any) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int(parsed)
	default:
		return 0
	}
}
