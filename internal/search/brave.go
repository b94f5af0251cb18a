package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/models"
)

const defaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave searches the web with the Brave Search API.
type Brave struct {
	cfg        config.KeyedEndpoint
	maxResults int
	http       *HTTPClient
}

func NewBrave(cfg config.KeyedEndpoint, maxResults int, http *HTTPClient) *Brave {
	return &Brave{cfg: cfg, maxResults: maxResults, http: http}
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Search(ctx context.Context, query string) ([]models.Article, error) {
	var resp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
				PageAge     string `json:"page_age"`
				Age         string `json:"age"`
			} `json:"results"`
		} `json:"web"`
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(max1(b.maxResults, defaultMaxResults)))
	endpoint := withQuery(firstNonEmpty(b.cfg.Endpoint, defaultBraveEndpoint), params)
	headers := map[string]string{
		"X-Subscription-Token": b.cfg.APIKey,
		"Accept":               "application/json",
	}
	if err := b.http.DoJSON(ctx, "GET", endpoint, headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("brave: %w", err)
	}
	c := newCollector(b.Name(), b.maxResults)
	for _, r := range resp.Web.Results {
		c.add(r.Title, r.Description, r.URL, firstNonEmpty(r.PageAge, r.Age))
	}
	return c.articles(), nil
}
