package validation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/rules"
)

// UniquenessChecker reports how many non-archived definitions already exist
// for the exact same term and context combination. Implemented by the
// definition store; read-only.
type UniquenessChecker interface {
	CountActive(ctx context.Context, term string, org, legal, basis definition.ContextSet) (int, error)
}

// Config holds the engine's acceptance policy.
type Config struct {
	// HardMinScore is the minimum acceptable overall score. The comparison
	// is inclusive.
	HardMinScore float64 `yaml:"hard_min_score"`

	// CategoryMinimums denies acceptance when a category's score falls below
	// its configured minimum, regardless of the overall score.
	CategoryMinimums map[string]float64 `yaml:"category_minimums"`

	// Workers bounds parallel rule evaluation. 0 or 1 evaluates
	// sequentially. Output is deterministic either way.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the default acceptance policy.
func DefaultConfig() Config {
	return Config{
		HardMinScore: 0.75,
		CategoryMinimums: map[string]float64{
			string(rules.CategoryEssence): 0.5,
			string(rules.CategoryForm):    0.5,
		},
	}
}

// Engine validates candidate texts against the active rule set.
type Engine struct {
	cache      *rules.Cache
	uniqueness UniquenessChecker
	config     Config
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithUniquenessChecker wires the read-only store check used by the
// uniqueness rule.
func WithUniquenessChecker(c UniquenessChecker) Option {
	return func(e *Engine) { e.uniqueness = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a validation engine backed by the given rule cache.
func NewEngine(cache *rules.Cache, cfg Config, opts ...Option) *Engine {
	if cfg.HardMinScore <= 0 {
		cfg.HardMinScore = DefaultConfig().HardMinScore
	}
	e := &Engine{
		cache:  cache,
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate evaluates the input against every active rule and aggregates the
// outcomes. It never returns an error: when the engine itself cannot
// complete, the result is degraded but schema-compliant.
func (e *Engine) Validate(ctx context.Context, in Input) *Result {
	start := time.Now()

	correlationID := in.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	set, err := e.cache.GetAll()
	if err != nil {
		e.logger.Error("Rule set unavailable, returning degraded result",
			"correlation_id", correlationID, "error", err)
		r := NewDegradedResult(correlationID, fmt.Sprintf("rule set unavailable: %v", err))
		r.System.DurationMs = time.Since(start).Milliseconds()
		return r
	}

	outcomes := e.evaluateAll(ctx, set, in)

	result := e.aggregate(outcomes)
	result.System.CorrelationID = correlationID
	result.System.DurationMs = time.Since(start).Milliseconds()
	EnsureSchemaCompliance(result)

	e.logger.Debug("Validation complete",
		"correlation_id", correlationID,
		"term", in.Term,
		"score", result.OverallScore,
		"acceptable", result.IsAcceptable,
		"violations", len(result.Violations),
		"errored_rules", len(result.ErroredRules))

	return result
}

// evaluateAll runs every rule, isolating per-rule failures. The returned
// slice is in rule-set order regardless of evaluation parallelism.
func (e *Engine) evaluateAll(ctx context.Context, set *rules.Set, in Input) []outcome {
	outcomes := make([]outcome, set.Len())

	run := func(i int, r *rules.Rule) {
		outcomes[i] = e.evaluateIsolated(ctx, r, in)
	}

	if e.config.Workers <= 1 {
		for i, r := range set.Rules {
			run(i, r)
		}
		return outcomes
	}

	sem := make(chan struct{}, e.config.Workers)
	var wg sync.WaitGroup
	for i, r := range set.Rules {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, r *rules.Rule) {
			defer wg.Done()
			defer func() { <-sem }()
			run(i, r)
		}(i, r)
	}
	wg.Wait()
	return outcomes
}

// evaluateIsolated evaluates one rule, converting panics and errors into an
// errored outcome so one broken rule never blocks the others.
func (e *Engine) evaluateIsolated(ctx context.Context, r *rules.Rule, in Input) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("Rule panicked during evaluation", "rule", r.ID, "panic", rec)
			out = outcome{ruleID: r.ID, category: r.Category, weight: r.Weight, errored: true}
		}
	}()

	out, err := e.evaluateRule(ctx, r, in)
	if err != nil {
		e.logger.Warn("Rule errored during evaluation", "rule", r.ID, "error", err)
		return outcome{ruleID: r.ID, category: r.Category, weight: r.Weight, errored: true}
	}
	return out
}

// aggregate folds per-rule outcomes into a Result: weighted overall score
// over non-errored rules, per-category breakdown, hard blockers and
// category minimums as independent acceptance gates.
func (e *Engine) aggregate(outcomes []outcome) *Result {
	result := &Result{
		SchemaVersion:  SchemaVersion,
		Violations:     []Violation{},
		PassedRules:    []string{},
		DetailedScores: map[string]float64{},
	}

	var weightedSum, weightTotal float64
	catWeighted := map[string]float64{}
	catWeights := map[string]float64{}
	blocked := false

	for _, out := range outcomes {
		if out.errored {
			result.ErroredRules = append(result.ErroredRules, out.ruleID)
			continue
		}

		weightedSum += out.score * out.weight
		weightTotal += out.weight
		cat := string(out.category)
		catWeighted[cat] += out.score * out.weight
		catWeights[cat] += out.weight

		if out.passed {
			result.PassedRules = append(result.PassedRules, out.ruleID)
			continue
		}

		if out.violation != nil {
			result.Violations = append(result.Violations, *out.violation)
			if out.blocker {
				blocked = true
			}
		}
	}

	if weightTotal == 0 {
		// Every rule errored: explicit degraded marker, score zero.
		result.OverallScore = 0
		result.IsAcceptable = false
		result.Degraded = true
		result.System.Error = "all rules errored during evaluation"
		return result
	}

	result.OverallScore = roundScore(weightedSum / weightTotal)
	for cat, w := range catWeights {
		result.DetailedScores[cat] = roundScore(catWeighted[cat] / w)
	}

	categoriesOK := true
	for cat, minimum := range e.config.CategoryMinimums {
		if score, ok := result.DetailedScores[cat]; ok && !determineAcceptability(score, minimum) {
			categoriesOK = false
			break
		}
	}

	// Score threshold, hard blockers and category minimums are independent
	// gates; any one of them denies acceptance.
	result.IsAcceptable = determineAcceptability(result.OverallScore, e.config.HardMinScore) &&
		!blocked && categoriesOK

	return result
}
