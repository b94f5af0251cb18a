package search

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/models"
)

const defaultSerperEndpoint = "https://google.serper.dev/search"

// Serper searches Google through serper.dev.
type Serper struct {
	cfg        config.KeyedEndpoint
	maxResults int
	http       *HTTPClient
}

func NewSerper(cfg config.KeyedEndpoint, maxResults int, http *HTTPClient) *Serper {
	return &Serper{cfg: cfg, maxResults: maxResults, http: http}
}

func (s *Serper) Name() string { return "serper" }

type serperHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

func (s *Serper) Search(ctx context.Context, query string) ([]models.Article, error) {
	var resp struct {
		Organic    []serperHit `json:"organic"`
		News       []serperHit `json:"news"`
		TopStories []serperHit `json:"topStories"`
	}
	endpoint := firstNonEmpty(s.cfg.Endpoint, defaultSerperEndpoint)
	headers := map[string]string{"X-API-KEY": s.cfg.APIKey}
	body := map[string]any{"q": query, "num": max1(s.maxResults, defaultMaxResults)}
	if err := s.http.DoJSON(ctx, "POST", endpoint, headers, body, &resp); err != nil {
		return nil, fmt.Errorf("serper: %w", err)
	}
	c := newCollector(s.Name(), s.maxResults)
	for _, section := range [][]serperHit{resp.Organic, resp.News, resp.TopStories} {
		for _, h := range section {
			c.add(h.Title, h.Snippet, h.Link, h.Date)
		}
	}
	return c.articles(), nil
}
