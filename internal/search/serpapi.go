package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/models"
)

const defaultSerpAPIEndpoint = "https://serpapi.com/search.json"

// SerpAPI searches Google through serpapi.com.
type SerpAPI struct {
	cfg        config.KeyedEndpoint
	maxResults int
	http       *HTTPClient
}

func NewSerpAPI(cfg config.KeyedEndpoint, maxResults int, http *HTTPClient) *SerpAPI {
	return &SerpAPI{cfg: cfg, maxResults: maxResults, http: http}
}

func (s *SerpAPI) Name() string { return "serpapi" }

// serpAPIHit covers the organic, news and top story shapes, which name the
// snippet, link and date fields differently.
type serpAPIHit struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
	Link        string `json:"link"`
	URL         string `json:"url"`
	Date        string `json:"date"`
	Published   string `json:"published"`
}

func (s *SerpAPI) Search(ctx context.Context, query string) ([]models.Article, error) {
	var resp struct {
		Organic    []serpAPIHit `json:"organic_results"`
		News       []serpAPIHit `json:"news_results"`
		TopStories []serpAPIHit `json:"top_stories"`
	}
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(max1(s.maxResults, defaultMaxResults)))
	params.Set("api_key", s.cfg.APIKey)
	endpoint := withQuery(firstNonEmpty(s.cfg.Endpoint, defaultSerpAPIEndpoint), params)
	if err := s.http.DoJSON(ctx, "GET", endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}
	c := newCollector(s.Name(), s.maxResults)
	for _, section := range [][]serpAPIHit{resp.Organic, resp.News, resp.TopStories} {
		for _, h := range section {
			c.add(h.Title, firstNonEmpty(h.Snippet, h.Description), firstNonEmpty(h.Link, h.URL), firstNonEmpty(h.Date, h.Published))
		}
	}
	return c.articles(), nil
}
