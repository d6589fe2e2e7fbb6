package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// cancelQueueKey is the sorted set holding order IDs scored by the unix
// time their cancellation check becomes due.
const cancelQueueKey = "order:cancel:due"

// luaPopDue atomically pops members whose score is due. Popping and
// removal happen in one script so two workers never process the same
// member for the same due time.
const luaPopDue = `
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
if #due > 0 then
  redis.call('ZREM', KEYS[1], unpack(due))
end
return due
`

// RedisScheduler is a Redis-backed delay queue for deferred order
// cancellation. Delivery is at-least-once: a task that fails processing is
// pushed back with a short delay, and duplicates are absorbed by the
// cancellation task's own idempotency.
type RedisScheduler struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewRedisScheduler creates a Redis-backed cancellation scheduler.
func NewRedisScheduler(rdb *redis.Client, logger zerolog.Logger) *RedisScheduler {
	return &RedisScheduler{
		rdb:    rdb,
		logger: logger.With().Str("component", "cancel-scheduler").Logger(),
	}
}

// Schedule enqueues a cancellation check for the order, due after ttl.
func (s *RedisScheduler) Schedule(ctx context.Context, orderID uuid.UUID, ttl time.Duration) error {
	due := time.Now().Add(ttl).Unix()

	err := s.rdb.ZAdd(ctx, cancelQueueKey, redis.Z{
		Score:  float64(due),
		Member: orderID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule cancellation: %w", err)
	}

	s.logger.Debug().
		Str("order_id", orderID.String()).
		Dur("ttl", ttl).
		Msg("cancellation scheduled")
	return nil
}

// popDue removes and returns up to limit order IDs whose check is due.
func (s *RedisScheduler) popDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	res, err := s.rdb.Eval(ctx, luaPopDue, []string{cancelQueueKey}, now.Unix(), limit).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to pop due cancellations: %w", err)
	}
	return res, nil
}

// requeue pushes a task back after a processing failure.
func (s *RedisScheduler) requeue(ctx context.Context, member string, delay time.Duration) error {
	return s.rdb.ZAdd(ctx, cancelQueueKey, redis.Z{
		Score:  float64(time.Now().Add(delay).Unix()),
		Member: member,
	}).Err()
}
