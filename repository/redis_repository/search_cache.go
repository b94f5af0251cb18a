package redis_repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/sourcer/models"
)

// SearchCache stores search results as JSON strings with an expiry.
type SearchCache struct {
	client *redis.Client
}

func (r *SearchCache) Get(ctx context.Context, key string) ([]models.Article, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var articles []models.Article
	if err := json.Unmarshal(val, &articles); err != nil {
		return nil, false, err
	}
	return articles, true, nil
}

func (r *SearchCache) Set(ctx context.Context, key string, articles []models.Article, ttl time.Duration) error {
	data, err := json.Marshal(articles)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func NewSearchCache(client *redis.Client) *SearchCache {
	return &SearchCache{client: client}
}
