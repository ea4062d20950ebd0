package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"catalog-api/internal/config"
	"catalog-api/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ProductCache is a read-through cache for single products.
//
// Writers bump a generation counter when they invalidate. A reader takes the
// generation before it reads the store and passes it to Set, so a row read
// before an invalidation can never be cached after it.
type ProductCache interface {
	// Get returns the cached product, or nil on a miss.
	Get(ctx context.Context, id uint) (*model.Product, error)

	// Generation returns the current invalidation generation.
	Generation(ctx context.Context) (int64, error)

	// Set stores a product until the cache TTL expires, unless the
	// generation has moved past gen. It reports whether the write happened.
	Set(ctx context.Context, product *model.Product, gen int64) (bool, error)

	// Invalidate advances the generation and evicts the given products.
	Invalidate(ctx context.Context, ids ...uint) error
}

const generationKey = "product:generation"

// setIfGeneration writes KEYS[2] only while KEYS[1] still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// NewRedisClient creates a Redis client from the cache configuration.
func NewRedisClient(cfg config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache creates a ProductCache stored in Redis.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ProductCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "product-cache").Logger(),
	}
}

func (c *redisCache) Get(ctx context.Context, id uint) (*model.Product, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached product: %w", err)
	}

	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached product: %w", err)
	}

	if p.ID != id {
		c.logger.Warn().Uint("key_id", id).Uint("cached_id", p.ID).Msg("cache id mismatch, evicting")
		if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to evict mismatched entry")
		}
		return nil, nil
	}

	return &p, nil
}

func (c *redisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (c *redisCache) Set(ctx context.Context, product *model.Product, gen int64) (bool, error) {
	data, err := json.Marshal(product)
	if err != nil {
		return false, fmt.Errorf("failed to encode product for cache: %w", err)
	}

	written, err := setIfGeneration.Run(ctx, c.client,
		[]string{generationKey, productKey(product.ID)},
		strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache product: %w", err)
	}

	if written == 0 {
		c.logger.Debug().Uint("product_id", product.ID).Int64("generation", gen).Msg("stale cache write skipped")
	}
	return written == 1, nil
}

func (c *redisCache) Invalidate(ctx context.Context, ids ...uint) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate products: %w", err)
	}
	return nil
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

type nopCache struct{}

// NewNopCache returns a ProductCache that never hits.
func NewNopCache() ProductCache {
	return nopCache{}
}

func (nopCache) Get(context.Context, uint) (*model.Product, error)        { return nil, nil }
func (nopCache) Generation(context.Context) (int64, error)                { return 0, nil }
func (nopCache) Set(context.Context, *model.Product, int64) (bool, error) { return false, nil }
func (nopCache) Invalidate(context.Context, ...uint) error                { return nil }
