package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/models"
)

// SearchCache caches full search responses in Redis keyed by a hash of
// the search request. When Redis is not configured every operation is
// a no-op, so callers never need to branch on availability.
type SearchCache struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  logging.Logger
}

// NewSearchCache connects to Redis using the configured URL. An empty
// URL returns a disabled cache and no error.
func NewSearchCache(cfg *config.Config, logger logging.Logger) (*SearchCache, error) {
	cache := &SearchCache{
		ttl:     cfg.Redis.CacheTTL,
		timeout: cfg.Redis.Timeout,
		logger:  logger,
	}
	if cfg.Redis.URL == "" {
		logger.Info("Redis not configured, search response caching disabled")
		return cache, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cache.timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache.client = client
	logger.Info("Connected to Redis for search response caching", map[string]interface{}{
		"ttl": cache.ttl.String(),
	})
	return cache, nil
}

// Enabled reports whether a Redis backend is attached.
func (c *SearchCache) Enabled() bool {
	return c.client != nil
}

// Key derives a stable cache key from the search request and fetch
// mode. Requests that canonicalize to the same JSON share a key.
func (c *SearchCache) Key(req *models.SearchRequest, mode string, maxPages int) string {
	payload, err := json.Marshal(req)
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", req))
	}
	sum := sha256.Sum256(append(payload, []byte(fmt.Sprintf("|%s|%d", mode, maxPages))...))
	return "swissjobs:search:" + hex.EncodeToString(sum[:])
}

// Get returns a cached response, or nil on miss or when disabled.
func (c *SearchCache) Get(ctx context.Context, key string) *models.SearchResponse {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Redis read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("Discarding malformed cached search response", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}
	return &resp
}

// Set stores a response under key for the configured TTL. Failures are
// logged and swallowed; caching is best effort.
func (c *SearchCache) Set(ctx context.Context, key string, resp *models.SearchResponse) {
	if c.client == nil || resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("Failed to serialize search response for cache", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Redis write failed", map[string]interface{}{"error": err.Error()})
	}
}

// HealthCheck pings Redis. Disabled caches report healthy.
func (c *SearchCache) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *SearchCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
