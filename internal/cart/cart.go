package cart

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// cartKey is the hash holding a user's cart, one field per SKU.
func cartKey(userID string) string {
	return "cart:" + userID
}

// RedisCart removes purchased SKUs from a user's Redis-backed cart. It is
// a best-effort collaborator of the placement workflow: the cart lifecycle
// itself is owned elsewhere.
type RedisCart struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewRedisCart creates a Redis-backed cart collaborator.
func NewRedisCart(rdb *redis.Client, logger zerolog.Logger) *RedisCart {
	return &RedisCart{
		rdb:    rdb,
		logger: logger.With().Str("component", "cart").Logger(),
	}
}

// RemoveItems drops the given SKUs from the user's cart.
func (c *RedisCart) RemoveItems(ctx context.Context, userID string, skuIDs []string) error {
	if len(skuIDs) == 0 {
		return nil
	}

	if err := c.rdb.HDel(ctx, cartKey(userID), skuIDs...).Err(); err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}

	c.logger.Debug().
		Str("user_id", userID).
		Int("sku_count", len(skuIDs)).
		Msg("purchased items removed from cart")
	return nil
}
