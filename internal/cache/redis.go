// Package cache provides a Redis-backed cache of masking results so
// repeated documents skip recognition and anonymization entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/privacy"
)

// MaskCache caches MaskResults in Redis keyed by a hash of the input text.
// It implements privacy.MaskCache.
type MaskCache struct {
	client *redis.Client
	config config.CacheConfig
	logger *zap.Logger
	stats  cacheStats
}

type cacheStats struct {
	hits   int64
	misses int64
}

// cachedResult is the Redis value shape. Only masked output and findings are
// stored; the original text never reaches Redis.
type cachedResult struct {
	MaskedText string            `json:"masked_text"`
	Findings   []privacy.Finding `json:"findings,omitempty"`
	CachedAt   time.Time         `json:"cached_at"`
	TTL        int64             `json:"ttl"`
}

// Stats reports cache performance counters.
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	TotalKeys   int64   `json:"total_keys"`
	MemoryUsage int64   `json:"memory_usage_bytes"`
}

// NewMaskCache connects to Redis and verifies the connection.
func NewMaskCache(cfg config.CacheConfig, logger *zap.Logger) (*MaskCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	mc := &MaskCache{
		client: client,
		config: cfg,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Mask cache initialized successfully",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("default_ttl", cfg.DefaultTTL))

	return mc, nil
}

// key derives the Redis key for a text. Hashing keeps raw document content
// out of key space and bounds key length.
func (mc *MaskCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return mc.config.KeyPrefix + ":" + hex.EncodeToString(sum[:])
}

// Get looks up a cached mask result. Lookup failures and corrupted entries
// are treated as misses.
func (mc *MaskCache) Get(ctx context.Context, text string) (*privacy.MaskResult, bool) {
	cacheKey := mc.key(text)

	data, err := mc.client.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		atomic.AddInt64(&mc.stats.misses, 1)
		return nil, false
	} else if err != nil {
		mc.logger.Error("Cache lookup failed", zap.Error(err))
		atomic.AddInt64(&mc.stats.misses, 1)
		return nil, false
	}

	var cached cachedResult
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		mc.logger.Error("Failed to unmarshal cached result", zap.Error(err))
		mc.client.Del(ctx, cacheKey)
		atomic.AddInt64(&mc.stats.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&mc.stats.hits, 1)
	mc.logger.Debug("Cache hit", zap.String("key", cacheKey))

	return &privacy.MaskResult{
		MaskedText: cached.MaskedText,
		Findings:   cached.Findings,
		FromCache:  true,
	}, true
}

// Store caches a mask result with the configured TTL.
func (mc *MaskCache) Store(ctx context.Context, text string, result *privacy.MaskResult) error {
	cacheKey := mc.key(text)

	data, err := json.Marshal(cachedResult{
		MaskedText: result.MaskedText,
		Findings:   result.Findings,
		CachedAt:   time.Now(),
		TTL:        int64(mc.config.DefaultTTL.Seconds()),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal result for caching: %w", err)
	}

	if err := mc.client.Set(ctx, cacheKey, data, mc.config.DefaultTTL).Err(); err != nil {
		mc.logger.Error("Failed to cache mask result", zap.Error(err))
		return fmt.Errorf("failed to cache mask result: %w", err)
	}

	mc.logger.Debug("Mask result cached", zap.String("key", cacheKey))
	return nil
}

// GetStats returns cache performance statistics including Redis memory use.
func (mc *MaskCache) GetStats(ctx context.Context) (*Stats, error) {
	info, err := mc.client.Info(ctx, "memory").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis info: %w", err)
	}

	stats := &Stats{
		Hits:   atomic.LoadInt64(&mc.stats.hits),
		Misses: atomic.LoadInt64(&mc.stats.misses),
	}
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, "used_memory:") {
			if mem, err := strconv.ParseInt(strings.TrimPrefix(line, "used_memory:"), 10, 64); err == nil {
				stats.MemoryUsage = mem
			}
		}
	}

	if keys, err := mc.client.DBSize(ctx).Result(); err == nil {
		stats.TotalKeys = keys
	}
	return stats, nil
}

// Clear removes all cached results under this cache's key prefix.
func (mc *MaskCache) Clear(ctx context.Context) error {
	pattern := mc.config.KeyPrefix + ":*"

	iter := mc.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := mc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	mc.logger.Info("Mask cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close releases the Redis connection pool.
func (mc *MaskCache) Close() error {
	return mc.client.Close()
}

// maskRedisURL hides credentials in a Redis URL for logging.
func maskRedisURL(url string) string {
	if at := strings.LastIndex(url, "@"); at != -1 {
		if scheme := strings.Index(url, "://"); scheme != -1 {
			return url[:scheme+3] + "***" + url[at:]
		}
	}
	return url
}
