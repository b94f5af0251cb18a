package search

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/config"
)

// FromConfig builds the providers named in cfg.Order. Providers that need an
// API key and have none are skipped with a warning; it is an error when
// nothing usable remains.
func FromConfig(cfg config.SourcesConfig, logger zerolog.Logger) ([]Provider, error) {
	client := NewHTTPClient(cfg.Timeout, cfg.Retries, 0)
	var out []Provider
	for _, name := range cfg.Order {
		var (
			p   Provider
			key string
		)
		switch name {
		case "serper":
			p, key = NewSerper(cfg.Serper, cfg.MaxResults, client), cfg.Serper.APIKey
		case "serpapi":
			p, key = NewSerpAPI(cfg.SerpAPI, cfg.MaxResults, client), cfg.SerpAPI.APIKey
		case "brave":
			p, key = NewBrave(cfg.Brave, cfg.MaxResults, client), cfg.Brave.APIKey
		case "newsapi":
			p, key = NewNewsAPI(cfg.NewsAPI, cfg.MaxResults, client), cfg.NewsAPI.APIKey
		case "googlenews":
			p, key = NewGoogleNews(cfg.GoogleNews, cfg.MaxResults, client), "keyless"
		default:
			return nil, fmt.Errorf("unknown search provider %q", name)
		}
		if strings.TrimSpace(key) == "" {
			logger.Warn().Str("provider", name).Msg("search provider has no API key, skipping")
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: configure an API key for one of %v or add googlenews", ErrNoProviders, cfg.Order)
	}
	return out, nil
}
