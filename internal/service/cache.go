package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores derived read models. Misses and failures fall through to the
// store.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, any) error         { return nil }
func (NopCache) DeletePrefix(context.Context, string) error     { return nil }

const (
	cachePrefix    = "erpledger:"
	statementKey   = cachePrefix + "statement:"
	balancesKey    = cachePrefix + "balances"
	scanBatchCount = 100
)

type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

// DeletePrefix removes every key starting with prefix.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", scanBatchCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func statementCacheKey(accountID string, from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", statementKey, accountID, cacheDate(from), cacheDate(to))
}

func cacheDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// invalidateAccounts drops the statements of ids and the balances summary.
func (s *Service) invalidateAccounts(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if err := s.cache.DeletePrefix(ctx, statementKey+id+":"); err != nil {
			s.log.WithError(err).WithField("account", id).Warn("cache invalidation failed")
		}
	}
	if err := s.cache.DeletePrefix(ctx, balancesKey); err != nil {
		s.log.WithError(err).Warn("cache invalidation failed")
	}
}
