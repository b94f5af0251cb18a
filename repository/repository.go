package repository

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/sourcer/config"
	"github.com/mohammad-safakhou/sourcer/internal/search"
	"github.com/mohammad-safakhou/sourcer/repository/redis_repository"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// NewSearchCache opens the search cache backend. The returned close function
// releases any connection and is never nil.
func NewSearchCache(ctx context.Context, t CacheType, cfg config.RedisConfig) (search.Cache, func() error, error) {
	switch t {
	case CacheTypeMemory, "":
		return search.NewMemoryCache(), func() error { return nil }, nil
	case CacheTypeRedis:
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		c, err := redis_repository.Conn(ctx, cfg.Host, cfg.Port, cfg.Password, cfg.DB, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return redis_repository.NewSearchCache(c), c.Close, nil
	}
	return nil, nil, fmt.Errorf("invalid cache type: %s", t)
}
