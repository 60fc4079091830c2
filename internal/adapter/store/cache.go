package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"go.ngs.io/sst-validation/internal/domain"
	"go.ngs.io/sst-validation/internal/metrics"
)

// DefaultCacheSize is the number of datasets kept in memory.
const DefaultCacheSize = 8

// CachedLoader keeps recently used datasets in memory. Datasets are read-only,
// so one cached snapshot is shared by all concurrent queries.
type CachedLoader struct {
	next   DatasetLoader
	cache  *lru.Cache[string, *domain.Dataset]
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedLoader wraps next with an LRU cache of size datasets.
func NewCachedLoader(next DatasetLoader, size int, logger *slog.Logger) (*CachedLoader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &CachedLoader{next: next, logger: logger}

	cache, err := lru.NewWithEvict(size, func(path string, _ *domain.Dataset) {
		metrics.DatasetCacheEvictions.Inc()
		c.logger.Debug("dataset evicted", slog.String("path", path))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// Load returns the cached dataset for path, loading it on a miss. Concurrent
// misses for the same file share one load. Failures are not cached.
func (c *CachedLoader) Load(path string) (*domain.Dataset, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}

	if ds, ok := c.cache.Get(key); ok {
		metrics.DatasetCache.WithLabelValues(metrics.CacheHit).Inc()
		return ds, nil
	}
	metrics.DatasetCache.WithLabelValues(metrics.CacheMiss).Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		start := time.Now()
		ds, err := c.next.Load(key)
		metrics.DatasetLoadDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.DatasetLoads.WithLabelValues(metrics.ResultError).Inc()
			c.logger.Warn("dataset load failed", slog.String("path", key), slog.Any("error", err))
			return nil, err
		}
		metrics.DatasetLoads.WithLabelValues(metrics.ResultOK).Inc()
		c.logger.Debug("dataset loaded",
			slog.String("path", key),
			slog.Int("lat", len(ds.Lat)),
			slog.Int("lon", len(ds.Lon)),
			slog.Duration("elapsed", time.Since(start)))
		c.cache.Add(key, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Dataset), nil
}

// Len returns the number of cached datasets.
func (c *CachedLoader) Len() int {
	return c.cache.Len()
}
