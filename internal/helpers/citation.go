package helpers

import (
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/sourcer/models"
)

// citationConfig controls formatting behaviour.
type citationConfig struct {
	maxSnippet int
}

// CitationOption configures citation formatting.
type CitationOption func(*citationConfig)

// WithMaxSnippetLength truncates descriptions to the provided length (default 180).
func WithMaxSnippetLength(n int) CitationOption {
	return func(cfg *citationConfig) {
		if n > 0 {
			cfg.maxSnippet = n
		}
	}
}

// FormatCitation renders a ranked article on one line:
// [N] Title — "Description" (domain, YYYY-MM-DD) <URL> {label; sentence P; score S}
func FormatCitation(a models.Article, opts ...CitationOption) string {
	cfg := citationConfig{maxSnippet: 180}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := "source"
	if a.ResultNumber > 0 {
		id = strconv.Itoa(a.ResultNumber)
	}
	parts := []string{"[" + id + "]"}

	if title := strings.TrimSpace(a.Title); title != "" {
		parts = append(parts, title)
	}
	if snippet := formatSnippet(a.Description, cfg.maxSnippet); snippet != "" {
		parts = append(parts, "— "+snippet)
	}
	if domain := URLDomain(a.URL); domain != "" {
		meta := domain
		if date := formatDate(a.PublishedAt); date != "" {
			meta += ", " + date
		}
		parts = append(parts, "("+meta+")")
	}
	if link := strings.TrimSpace(a.URL); link != "" {
		parts = append(parts, "<"+link+">")
	}

	var tags []string
	if a.UsageLabel != "" {
		tags = append(tags, string(a.UsageLabel))
	}
	if a.ScriptPosition > 0 {
		tags = append(tags, "sentence "+strconv.Itoa(a.ScriptPosition))
	}
	if a.RelevanceScore > 0 {
		tags = append(tags, "score "+strconv.Itoa(a.RelevanceScore))
	}
	if len(tags) > 0 {
		parts = append(parts, "{"+strings.Join(tags, "; ")+"}")
	}
	return strings.Join(parts, " ")
}

// FormatCitations renders a collection of articles.
func FormatCitations(articles []models.Article, opts ...CitationOption) []string {
	if len(articles) == 0 {
		return nil
	}
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, FormatCitation(a, opts...))
	}
	return out
}

func formatSnippet(snippet string, limit int) string {
	snippet = strings.Join(strings.Fields(snippet), " ")
	if snippet == "" {
		return ""
	}
	if limit > 0 && len([]rune(snippet)) > limit {
		snippet = string([]rune(snippet)[:limit]) + "…"
	}
	return `"` + strings.Trim(snippet, `"`) + `"`
}

// formatDate shortens RFC 3339 timestamps to a calendar date; other values pass through.
func formatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC().Format("2006-01-02")
	}
	return raw
}
