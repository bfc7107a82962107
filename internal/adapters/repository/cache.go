package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

const (
	redisStoreName    = "redis"
	defaultProjectTTL = 10 * time.Minute
)

// CachedStore decorates a Store with a Redis read-through cache for
// projections of an explicit version. Everything else goes straight to
// the wrapped store. Cache failures are logged and never fail a call.
type CachedStore struct {
	Store
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedStore wraps inner. A non-positive ttl selects the default.
func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultProjectTTL
	}
	return &CachedStore{
		Store:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.Get().Named("projection-cache"),
	}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func projectionsKey(period int, version string) string {
	return fmt.Sprintf("projections:%d:%s", period, version)
}

// SaveProjections writes through and drops the cached entries it touched.
func (c *CachedStore) SaveProjections(ctx context.Context, projections []model.Projection) error {
	if err := c.Store.SaveProjections(ctx, projections); err != nil {
		return err
	}
	seen := make(map[string]struct{})
	keys := make([]string, 0, 1)
	for _, p := range projections {
		key := projectionsKey(p.Period, p.ModelVersion)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil
	}
	start := time.Now()
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn(ctx, "cache invalidation failed", logger.Error(err))
	}
	observe(redisStoreName, "del", start)
	return nil
}

// Projections serves explicit versions from Redis when present.
func (c *CachedStore) Projections(ctx context.Context, period int, version string) ([]model.Projection, error) {
	if version == "" {
		return c.Store.Projections(ctx, period, version)
	}
	key := projectionsKey(period, version)

	start := time.Now()
	raw, err := c.client.Get(ctx, key).Bytes()
	observe(redisStoreName, "get", start)
	switch {
	case err == nil:
		var cached []model.Projection
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			metrics.RecordCacheLookup(true)
			return cached, nil
		}
		c.logger.Warn(ctx, "discarding undecodable cache entry", logger.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn(ctx, "cache read failed", logger.String("key", key), logger.Error(err))
	}
	metrics.RecordCacheLookup(false)

	out, err := c.Store.Projections(ctx, period, version)
	if err != nil || len(out) == 0 {
		return out, err
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	start = time.Now()
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
	}
	observe(redisStoreName, "set", start)
	return out, nil
}

// Close closes the wrapped store and the Redis client.
func (c *CachedStore) Close() error {
	return errors.Join(c.Store.Close(), c.client.Close())
}
