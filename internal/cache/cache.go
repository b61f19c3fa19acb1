package cache

import (
	"context"
	"fmt"

	"lokapasar-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Invalidator drops cached reads after a transaction commits. Misses and
// errors are logged and swallowed: the cache is an optimization, the
// database is the source of truth.
type Invalidator interface {
	InvalidateOrder(ctx context.Context, orderID, orderNumber, customerID string)
	InvalidateProducts(ctx context.Context, productIDs []string)
}

func OrderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func OrderNumberKey(orderNumber string) string {
	return fmt.Sprintf("order:number:%s", orderNumber)
}

func CustomerKey(customerID string) string {
	return fmt.Sprintf("customer:%s", customerID)
}

func ProductKey(productID string) string {
	return fmt.Sprintf("product:%s", productID)
}

type redisInvalidator struct {
	client *redis.Client
}

func NewRedisInvalidator(client *redis.Client) Invalidator {
	return &redisInvalidator{client: client}
}

func (c *redisInvalidator) InvalidateOrder(ctx context.Context, orderID, orderNumber, customerID string) {
	c.del(ctx,
		OrderKey(orderID),
		OrderNumberKey(orderNumber),
		CustomerKey(customerID),
	)
}

func (c *redisInvalidator) InvalidateProducts(ctx context.Context, productIDs []string) {
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, ProductKey(id))
	}
	c.del(ctx, keys...)
}

func (c *redisInvalidator) del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.FromCtx(ctx).Warn("cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

// NopInvalidator is used when no redis is configured.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateOrder(ctx context.Context, orderID, orderNumber, customerID string) {
}
func (NopInvalidator) InvalidateProducts(ctx context.Context, productIDs []string) {}
