package generate

import (
	"fmt"
	"strings"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/knowledge"
	"github.com/lexdef/lexdef/llm"
	"github.com/lexdef/lexdef/storage"
)

const systemPrompt = `Je bent een juridisch terminoloog bij een Nederlandse overheidsorganisatie.
Je schrijft definities van juridische en bestuurlijke begrippen.

Eisen aan elke definitie:
- Formeel en zakelijk Nederlands, geen spreektaal en geen Engelse woorden.
- Eén lopende zin die het wezen van het begrip beschrijft, geen opsomming van voorbeelden.
- Gebruik het begrip zelf niet in de definitie.
- Geen inleidende tekst zoals "Definitie:" of "Hier is"; antwoord met uitsluitend de definitietekst.`

// maxFeedbackHistory bounds how many prior failures are replayed.
const maxFeedbackHistory = 3

// DefaultPromptBuilder assembles the standard generation prompt.
type DefaultPromptBuilder struct{}

// NewPromptBuilder creates the default builder.
func NewPromptBuilder() *DefaultPromptBuilder {
	return &DefaultPromptBuilder{}
}

// Build assembles the prompt and records which sections went in.
func (b *DefaultPromptBuilder) Build(req *definition.GenerationRequest, snippets []knowledge.Snippet, history []*storage.FeedbackRecord) Prompt {
	var sb strings.Builder
	sections := []string{"term"}

	fmt.Fprintf(&sb, "Definieer het begrip: %s\n", req.Term)
	if req.Category != "" {
		fmt.Fprintf(&sb, "Categorie: %s\n", req.Category)
		sections = append(sections, "category")
	}

	if vals := req.OrgContext.Values(); len(vals) > 0 {
		fmt.Fprintf(&sb, "\nOrganisatorische context: %s\n", strings.Join(vals, ", "))
		sections = append(sections, "org_context")
	}
	if vals := req.LegalContext.Values(); len(vals) > 0 {
		fmt.Fprintf(&sb, "Juridische context: %s\n", strings.Join(vals, ", "))
		sections = append(sections, "legal_context")
	}
	if vals := req.LegalBasis.Values(); len(vals) > 0 {
		fmt.Fprintf(&sb, "Wettelijke grondslag: %s\n", strings.Join(vals, ", "))
		sections = append(sections, "legal_basis")
	}
	if req.LegalBasisNote != "" {
		fmt.Fprintf(&sb, "Toelichting grondslag: %s\n", req.LegalBasisNote)
		sections = append(sections, "legal_basis_note")
	}

	if len(snippets) > 0 {
		sb.WriteString("\nAchtergrondinformatie uit externe bronnen:\n")
		for _, s := range snippets {
			fmt.Fprintf(&sb, "--- %s", s.Source)
			if s.Title != "" {
				fmt.Fprintf(&sb, ": %s", s.Title)
			}
			sb.WriteString(" ---\n")
			sb.WriteString(s.Content)
			sb.WriteString("\n")
		}
		sections = append(sections, "knowledge")
	}

	if len(history) > 0 {
		recent := history
		if len(recent) > maxFeedbackHistory {
			recent = recent[len(recent)-maxFeedbackHistory:]
		}
		sb.WriteString("\nEerdere pogingen voor dit begrip zijn afgekeurd. Vermijd deze fouten:\n")
		for _, rec := range recent {
			fmt.Fprintf(&sb, "- Afgekeurd (%s): %q\n", strings.Join(rec.Violations, ", "), rec.Text)
		}
		sections = append(sections, "feedback")
	}

	sb.WriteString("\nGeef nu de definitie.")

	text := sb.String()
	return Prompt{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		TokenEstimate: estimateTokens(systemPrompt) + estimateTokens(text),
		SectionsUsed:  sections,
	}
}

// estimateTokens approximates the token count of a text. Four characters per
// token is close enough for budget checks.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}
