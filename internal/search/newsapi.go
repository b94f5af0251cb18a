package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/models"
)

const defaultNewsAPIEndpoint = "https://newsapi.org/v2/everything"

// NewsAPI searches recent news coverage on newsapi.org.
type NewsAPI struct {
	cfg        config.NewsAPIConfig
	maxResults int
	http       *HTTPClient
	now        func() time.Time
}

func NewNewsAPI(cfg config.NewsAPIConfig, maxResults int, http *HTTPClient) *NewsAPI {
	return &NewsAPI{cfg: cfg, maxResults: maxResults, http: http, now: time.Now}
}

func (n *NewsAPI) Name() string { return "newsapi" }

func (n *NewsAPI) Search(ctx context.Context, query string) ([]models.Article, error) {
	var resp struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
		} `json:"articles"`
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("from", n.now().AddDate(0, 0, -max1(n.cfg.DaysBack, 30)).Format("2006-01-02"))
	params.Set("pageSize", strconv.Itoa(max1(n.maxResults, defaultMaxResults)))
	params.Set("sortBy", "relevancy")
	endpoint := withQuery(firstNonEmpty(n.cfg.Endpoint, defaultNewsAPIEndpoint), params)
	headers := map[string]string{"X-Api-Key": n.cfg.APIKey}
	if err := n.http.DoJSON(ctx, "GET", endpoint, headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("newsapi: %s", resp.Message)
	}
	c := newCollector(n.Name(), n.maxResults)
	for _, a := range resp.Articles {
		c.add(a.Title, a.Description, a.URL, a.PublishedAt)
	}
	return c.articles(), nil
}
