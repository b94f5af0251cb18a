package search

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mohammad-safakhou/sourcer/internal/helpers"
	"github.com/mohammad-safakhou/sourcer/internal/pipeline"
	"github.com/mohammad-safakhou/sourcer/models"
)

// Cache stores search results by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Article, bool, error)
	Set(ctx context.Context, key string, articles []models.Article, ttl time.Duration) error
}

// Cached serves repeated queries from a Cache. Cache failures are logged and
// fall through to the wrapped source; errors and empty results are not stored.
type Cached struct {
	source pipeline.ArticleSource
	cache  Cache
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

func NewCached(source pipeline.ArticleSource, cache Cache, ttl time.Duration, prefix string, logger zerolog.Logger) *Cached {
	return &Cached{
		source: source,
		cache:  cache,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With().Str("component", "search_cache").Logger(),
	}
}

func (c *Cached) key(query string) string {
	return c.prefix + helpers.NormalizeQuery(query)
}

// Fetch implements pipeline.ArticleSource.
func (c *Cached) Fetch(ctx context.Context, query string) ([]models.Article, error) {
	key := c.key(query)
	articles, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	case ok:
		return articles, nil
	}

	articles, err = c.source.Fetch(ctx, query)
	if err != nil || len(articles) == 0 {
		return articles, err
	}
	if err := c.cache.Set(ctx, key, articles, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return articles, nil
}

type memoryEntry struct {
	articles []models.Article
	expires  time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]models.Article, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]models.Article(nil), e.articles...), true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, articles []models.Article, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{articles: append([]models.Article(nil), articles...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}
