package memory

import (
	"time"

	"chainstate/internal/config"
	domainRepo "chainstate/internal/domain/repository"
	"chainstate/internal/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.ResultCache = (*ResultCache)(nil)

// ResultCache implements domainRepo.ResultCache using the go-cache in-memory library.
// Concurrent misses on one key may both run the producer; the last store wins.
type ResultCache struct {
	cache   *cache.Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewResultCache creates a new in-memory result cache. Every entry carries its own TTL.
func NewResultCache(cfg config.CacheConfig, m *metrics.Metrics, logger *zap.Logger) *ResultCache {
	cleanupInterval := cfg.GetCleanupInterval()

	c := cache.New(cache.NoExpiration, cleanupInterval)
	logger.Info(
		"Initialized go-cache for result memoization",
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &ResultCache{
		cache:   c,
		metrics: m,
		logger:  logger.Named("ResultCache"),
	}
}

// Memoize returns the live value under key or computes, stores and returns a fresh one.
func (r *ResultCache) Memoize(key string, ttl time.Duration, producer func() (any, error)) (any, error) {
	operation := domainRepo.Operation(key)

	if x, found := r.cache.Get(key); found {
		r.metrics.CacheLookup(operation, true)
		r.logger.Debug("Memory cache hit", zap.String("key", key))
		return x, nil
	}
	r.metrics.CacheLookup(operation, false)
	r.logger.Debug("Memory cache miss", zap.String("key", key))

	value, err := producer()
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, value, ttl)
	r.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return value, nil
}

// Len reports the number of stored entries, expired ones included until they are evicted.
func (r *ResultCache) Len() int {
	return r.cache.ItemCount()
}
