package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/llm"
	"github.com/lexdef/lexdef/validation"
)

const enhanceSystemPrompt = `Je bent een juridisch terminoloog. Je herschrijft een afgekeurde
definitie zodat deze aan de kwaliteitseisen voldoet. Antwoord met uitsluitend
de herschreven definitietekst.`

// LLMEnhancer rewrites a failed candidate with the violations as guidance.
type LLMEnhancer struct {
	completer Completer
}

// NewLLMEnhancer creates the enhancer.
func NewLLMEnhancer(completer Completer) *LLMEnhancer {
	return &LLMEnhancer{completer: completer}
}

// Enhance asks the model for a revision addressing the reported violations.
func (e *LLMEnhancer) Enhance(ctx context.Context, req *definition.GenerationRequest, text string, result *validation.Result) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Begrip: %s\n\nAfgekeurde definitie:\n%s\n\nGeconstateerde problemen:\n", req.Term, text)
	for _, v := range result.Violations {
		fmt.Fprintf(&sb, "- [%s] %s\n", v.Rule, v.Message)
		if v.Suggestion != "" {
			fmt.Fprintf(&sb, "  Suggestie: %s\n", v.Suggestion)
		}
	}
	sb.WriteString("\nHerschrijf de definitie zodat alle problemen zijn opgelost.")

	resp, err := e.completer.Complete(ctx, llm.Request{
		Purpose: llm.PurposeEnhance,
		Messages: []llm.Message{
			{Role: "system", Content: enhanceSystemPrompt},
			{Role: "user", Content: sb.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("enhancement call: %w", err)
	}
	return resp.Content, nil
}
