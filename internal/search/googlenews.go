package search

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/models"
)

const defaultGoogleNewsEndpoint = "https://news.google.com/rss/search"

// GoogleNews searches the public Google News RSS feed. It needs no API key.
type GoogleNews struct {
	cfg        config.GoogleNewsConfig
	maxResults int
	http       *HTTPClient
}

func NewGoogleNews(cfg config.GoogleNewsConfig, maxResults int, http *HTTPClient) *GoogleNews {
	return &GoogleNews{cfg: cfg, maxResults: maxResults, http: http}
}

func (g *GoogleNews) Name() string { return "googlenews" }

func (g *GoogleNews) Search(ctx context.Context, query string) ([]models.Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", firstNonEmpty(g.cfg.HL, "en-US"))
	params.Set("gl", firstNonEmpty(g.cfg.GL, "US"))
	params.Set("ceid", firstNonEmpty(g.cfg.CEID, "US:en"))
	endpoint := withQuery(firstNonEmpty(g.cfg.Endpoint, defaultGoogleNewsEndpoint), params)
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 sourcer/1.0",
		"Accept":     "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1",
	}

	var feed *gofeed.Feed
	err := g.http.Do(ctx, "GET", endpoint, headers, nil, func(r io.Reader) error {
		var err error
		feed, err = gofeed.NewParser().Parse(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("google news: %w", err)
	}

	c := newCollector(g.Name(), g.maxResults)
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		published := item.Published
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		c.add(item.Title, item.Description, item.Link, published)
	}
	return c.articles(), nil
}
