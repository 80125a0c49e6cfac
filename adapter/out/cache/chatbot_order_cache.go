// Package cache decorates repositories with a read-through cache.
package cache

import (
	"context"
	"strconv"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/out"
	"chatbot_server/pkg/logger"
)

// JSONCache is the subset of pkg/cache.RedisCache the decorator needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// OrderCache serves repeated order lookups from the cache. Only found
// orders are cached; cache failures fall through to the repository.
type OrderCache struct {
	next  out.OrderRepository
	cache JSONCache
	ttl   time.Duration
	log   *logger.Logger
}

var _ out.OrderRepository = (*OrderCache)(nil)

// NewOrderCache wraps next.
func NewOrderCache(next out.OrderRepository, cache JSONCache, ttl time.Duration) *OrderCache {
	return &OrderCache{next: next, cache: cache, ttl: ttl, log: logger.WithField("component", "order_cache")}
}

func orderKey(orderNumber int64) string {
	return "order:" + strconv.FormatInt(orderNumber, 10)
}

func (c *OrderCache) GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error) {
	key := orderKey(orderNumber)

	var cached domain.Order
	hit, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		c.log.WithError(err).Debug("order cache read failed")
	}
	if hit {
		return &cached, nil
	}

	order, err := c.next.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, order, c.ttl); err != nil {
		c.log.WithError(err).Debug("order cache write failed")
	}
	return order, nil
}

// Invalidate drops a cached order, e.g. after its status changed.
func (c *OrderCache) Invalidate(ctx context.Context, orderNumber int64) error {
	return c.cache.Delete(ctx, orderKey(orderNumber))
}
