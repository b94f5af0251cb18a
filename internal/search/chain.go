package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/models"
)

// ErrNoProviders is returned by a Chain without providers.
var ErrNoProviders = errors.New("no search providers configured")

// Chain asks providers in order and returns the first non-empty result.
// A failing provider is logged and skipped; the chain fails only when every
// provider failed.
type Chain struct {
	providers []Provider
	logger    zerolog.Logger
}

func NewChain(logger zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger.With().Str("component", "search").Logger()}
}

// Providers returns the provider names in lookup order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Fetch implements pipeline.ArticleSource.
func (c *Chain) Fetch(ctx context.Context, query string) ([]models.Article, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProviders
	}
	var errs []error
	for _, p := range c.providers {
		articles, err := p.Search(ctx, query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn().Err(err).Str("provider", p.Name()).Str("query", query).Msg("search provider failed")
			errs = append(errs, err)
			continue
		}
		if len(articles) > 0 {
			c.logger.Debug().Str("provider", p.Name()).Str("query", query).Int("articles", len(articles)).Msg("search results")
			return articles, nil
		}
		c.logger.Debug().Str("provider", p.Name()).Str("query", query).Msg("no results, trying next provider")
	}
	if len(errs) == len(c.providers) {
		return nil, fmt.Errorf("all search providers failed: %w", errors.Join(errs...))
	}
	return []models.Article{}, nil
}
