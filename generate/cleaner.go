package generate

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Lead-ins models tend to put before the actual definition.
var metaLeadInRe = regexp.MustCompile(`(?i)^\s*(definitie|antwoord|hier is (de|een) definitie( van [^:]+)?|de definitie (luidt|is))\s*:?\s*`)

var (
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{2,}`)
)

// DefaultCleaner normalizes raw model output: meta lead-ins, markdown
// remnants, HTML tags and whitespace.
type DefaultCleaner struct{}

// NewCleaner creates the default cleaner.
func NewCleaner() *DefaultCleaner {
	return &DefaultCleaner{}
}

// Clean normalizes the text and reports whether anything changed.
func (c *DefaultCleaner) Clean(text string) CleanResult {
	cleaned := text

	if strings.Contains(cleaned, "<") && strings.Contains(cleaned, ">") {
		cleaned = stripHTML(cleaned)
	}

	cleaned = strings.TrimSpace(cleaned)
	cleaned = metaLeadInRe.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(cleaned, "\"'` ")
	cleaned = strings.TrimPrefix(cleaned, "**")
	cleaned = strings.TrimSuffix(cleaned, "**")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = blankLinesRe.ReplaceAllString(cleaned, "\n")
	cleaned = strings.TrimSpace(cleaned)

	return CleanResult{
		Text:    cleaned,
		Changed: cleaned != text,
	}
}

// stripHTML drops tags and keeps text content. Unparseable input is returned
// as-is.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}
