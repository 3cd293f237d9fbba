package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/models"
)

// ErrStatisticsNotFound is returned when neither tier holds any entity for
// the requested key.
var ErrStatisticsNotFound = errors.New("statistics not found")

// StatisticsRepository is the slow tier behind the cache.
type StatisticsRepository interface {
	FindStatisticsByDataQueryOrID(ctx context.Context, key string) ([]models.StatisticsEntity, error)
	FindAllStatisticsByUserBefore(ctx context.Context, userKey string, before time.Time) ([]models.StatisticsEntity, error)
	DeleteAllStatisticsByUserBefore(ctx context.Context, userKey string, before time.Time) ([]string, error)
}

// StatisticsCache reads statistics through the fast Redis tier and falls
// back to the repository, populating the fast tier on the way out.
type StatisticsCache struct {
	fast   *RedisCache
	repo   StatisticsRepository
	logger *logging.Logger
}

func NewStatisticsCache(fast *RedisCache, repo StatisticsRepository, logger *logging.Logger) *StatisticsCache {
	return &StatisticsCache{fast: fast, repo: repo, logger: logger}
}

// Find looks up statistics by entity id or data query text. A fast-tier
// failure other than a miss degrades to the repository instead of failing
// the read; fast-tier population is best effort.
func (c *StatisticsCache) Find(ctx context.Context, key string) ([]models.StatisticsEntity, error) {
	var cached []models.StatisticsEntity
	err := c.fast.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("statistics cache read failed, falling back to repository",
			logging.StatsKey(key), logging.Error(err))
	}

	entities, err := c.repo.FindStatisticsByDataQueryOrID(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find statistics: %w", err)
	}
	if len(entities) == 0 {
		return nil, ErrStatisticsNotFound
	}

	if err := c.fast.Set(ctx, key, entities); err != nil {
		c.logger.Warn("statistics cache write failed",
			logging.StatsKey(key), logging.Error(err))
	}
	return entities, nil
}

func (c *StatisticsCache) FindAllByUserBefore(ctx context.Context, userKey string, before time.Time) ([]models.StatisticsEntity, error) {
	return c.repo.FindAllStatisticsByUserBefore(ctx, userKey, before)
}

// DeleteOlderThan removes the user's statistics older than the cutoff
// from the repository and then drops the whole fast-tier namespace. The
// sweep may evict entries of other users; they repopulate on the next read.
func (c *StatisticsCache) DeleteOlderThan(ctx context.Context, userKey string, before time.Time) ([]string, error) {
	ids, err := c.repo.DeleteAllStatisticsByUserBefore(ctx, userKey, before)
	if err != nil {
		return nil, fmt.Errorf("delete statistics: %w", err)
	}
	if err := c.InvalidateAll(ctx); err != nil {
		c.logger.Warn("statistics cache invalidation failed", logging.Error(err))
	}
	return ids, nil
}

// InvalidateAll drops every cached statistics entry.
func (c *StatisticsCache) InvalidateAll(ctx context.Context) error {
	return c.fast.DeleteByPrefix(ctx, "")
}
