// Package cache provides the redis-backed quote cache.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.QuoteCache = (*RedisCache)(nil)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func key(symbol, market string) string { return "quote:" + market + ":" + symbol }

func (c *RedisCache) SetQuote(ctx context.Context, q *domain.Quote) error {
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(q.Symbol, q.Market), b, c.ttl).Err()
}

func (c *RedisCache) GetQuote(ctx context.Context, symbol, market string) (*domain.Quote, error) {
	b, err := c.client.Get(ctx, key(symbol, market)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q domain.Quote
	if err := json.Unmarshal(b, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
