package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/go-shiori/go-readability"
)

// maxPageSize bounds the fetched page body.
const maxPageSize = 4 * 1024 * 1024

// maxSnippetRunes bounds one snippet's content.
const maxSnippetRunes = 2000

// WebProvider fetches a term's page from a templated URL, extracts the
// readable article and converts it to a markdown snippet.
type WebProvider struct {
	name        string
	urlTemplate string
	httpClient  *http.Client
	converter   *md.Converter
}

// WebProviderOption configures a WebProvider.
type WebProviderOption func(*WebProvider)

// WithWebHTTPClient sets a custom HTTP client.
func WithWebHTTPClient(c *http.Client) WebProviderOption {
	return func(p *WebProvider) { p.httpClient = c }
}

// NewWebProvider creates a provider that looks terms up at urlTemplate, where
// %s is replaced by the URL-escaped term.
func NewWebProvider(name, urlTemplate string, opts ...WebProviderOption) *WebProvider {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	p := &WebProvider{
		name:        name,
		urlTemplate: urlTemplate,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		converter:   converter,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name.
func (p *WebProvider) Name() string {
	return p.name
}

// Lookup fetches and extracts one snippet for the term. An unreachable page
// or one with no readable content returns no snippets.
func (p *WebProvider) Lookup(ctx context.Context, term string) ([]Snippet, error) {
	pageURL := fmt.Sprintf(p.urlTemplate, url.QueryEscape(term))
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse lookup URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxPageSize)
	article, err := readability.FromReader(body, parsed)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, nil
	}

	markdown, err := p.converter.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("convert article: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil, nil
	}

	return []Snippet{{
		Source:  p.name,
		Title:   article.Title,
		URL:     pageURL,
		Content: truncateRunes(markdown, maxSnippetRunes),
	}}, nil
}

// truncateRunes cuts s to at most n runes without splitting one.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
