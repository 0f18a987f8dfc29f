package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/eventconfig"
)

// CachedCountSource fronts a CountSource with a short-lived Redis cache.
// Per-request consistency comes from the snapshot layer above; this cache
// only spreads the count queries across requests. On any Redis error the
// underlying source answers directly.
type CachedCountSource struct {
	source eventconfig.CountSource
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedCountSource(source eventconfig.CountSource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedCountSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCountSource{source: source, client: client, ttl: ttl, logger: logger}
}

func (c *CachedCountSource) BadgesSold(ctx context.Context) (int, error) {
	return c.cached(ctx, "counts:badges_sold", c.source.BadgesSold)
}

func (c *CachedCountSource) BadgeCountByType(ctx context.Context, badgeType int) (int, error) {
	key := fmt.Sprintf("counts:badge_type:%d", badgeType)
	return c.cached(ctx, key, func(ctx context.Context) (int, error) {
		return c.source.BadgeCountByType(ctx, badgeType)
	})
}

func (c *CachedCountSource) KickinCount(ctx context.Context, level int) (int, error) {
	key := fmt.Sprintf("counts:kickin:%d", level)
	return c.cached(ctx, key, func(ctx context.Context) (int, error) {
		return c.source.KickinCount(ctx, level)
	})
}

func (c *CachedCountSource) DealerApps(ctx context.Context) (int, error) {
	return c.cached(ctx, "counts:dealer_apps", c.source.DealerApps)
}

func (c *CachedCountSource) cached(ctx context.Context, key string, fetch func(context.Context) (int, error)) (int, error) {
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			return n, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("count cache read failed", zap.String("key", key), zap.Error(err))
	}

	n, err := fetch(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, strconv.Itoa(n), c.ttl).Err(); err != nil {
		c.logger.Warn("count cache write failed", zap.String("key", key), zap.Error(err))
	}
	return n, nil
}
