// Package search retrieves candidate articles for a query from web and news
// search providers.
package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/sourcer/internal/helpers"
	"github.com/mohammad-safakhou/sourcer/models"
)

const defaultMaxResults = 8

// Provider is one search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.Article, error)
}

// collector turns raw provider hits into sanitized articles and stops at limit.
type collector struct {
	source string
	limit  int
	out    []models.Article
}

func newCollector(source string, limit int) *collector {
	return &collector{source: source, limit: max1(limit, defaultMaxResults)}
}

// add records one hit. Hits with neither a title nor a link are ignored.
func (c *collector) add(title, description, link, published string) {
	if c.full() {
		return
	}
	title = helpers.SanitizeText(title)
	link = strings.TrimSpace(link)
	if title == "" && link == "" {
		return
	}
	c.out = append(c.out, models.Article{
		Title:       title,
		Description: helpers.SanitizeText(description),
		URL:         link,
		PublishedAt: strings.TrimSpace(published),
		Source:      c.source,
	})
}

func (c *collector) full() bool { return len(c.out) >= c.limit }

func (c *collector) articles() []models.Article {
	if c.out == nil {
		return []models.Article{}
	}
	return c.out
}

func withQuery(endpoint string, params url.Values) string {
	if strings.Contains(endpoint, "?") {
		return endpoint + "&" + params.Encode()
	}
	return endpoint + "?" + params.Encode()
}

func max1(a, def int) int {
	if a > 0 {
		return a
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
