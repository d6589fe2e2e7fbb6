package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"mini-shop/internal/cart"
	"mini-shop/internal/scheduler"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestRedis starts a Redis container and returns a connected client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	require.NoError(t, client.Ping(ctx).Err())

	t.Cleanup(func() {
		client.Close()
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return client
}

// recordingCanceller records cancellation invocations for assertions.
type recordingCanceller struct {
	mu      sync.Mutex
	calls   []uuid.UUID
	failIDs map[uuid.UUID]bool
	done    chan uuid.UUID
}

func newRecordingCanceller() *recordingCanceller {
	return &recordingCanceller{
		failIDs: make(map[uuid.UUID]bool),
		done:    make(chan uuid.UUID, 16),
	}
}

func (c *recordingCanceller) CancelUnpaid(ctx context.Context, orderID uuid.UUID) error {
	c.mu.Lock()
	c.calls = append(c.calls, orderID)
	fail := c.failIDs[orderID]
	c.mu.Unlock()

	c.done <- orderID
	if fail {
		return assert.AnError
	}
	return nil
}

func (c *recordingCanceller) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestRedisCart_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	cartService := cart.NewRedisCart(client, logger)

	require.NoError(t, client.HSet(ctx, "cart:user-1",
		"S001", 2, "S002", 1, "S003", 4).Err())

	t.Run("removes purchased items and keeps the rest", func(t *testing.T) {
		require.NoError(t, cartService.RemoveItems(ctx, "user-1", []string{"S001", "S003"}))

		remaining, err := client.HKeys(ctx, "cart:user-1").Result()
		require.NoError(t, err)
		assert.Equal(t, []string{"S002"}, remaining)
	})

	t.Run("removal of absent items is a no-op", func(t *testing.T) {
		require.NoError(t, cartService.RemoveItems(ctx, "user-1", []string{"S999"}))
		require.NoError(t, cartService.RemoveItems(ctx, "user-1", nil))

		remaining, err := client.HKeys(ctx, "cart:user-1").Result()
		require.NoError(t, err)
		assert.Equal(t, []string{"S002"}, remaining)
	})
}

func TestCancellationScheduler_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	logger := zerolog.Nop()

	t.Run("due tasks are delivered to the canceller", func(t *testing.T) {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		sched := scheduler.NewRedisScheduler(client, logger)
		canceller := newRecordingCanceller()

		orderID := uuid.New()
		require.NoError(t, sched.Schedule(context.Background(), orderID, 0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		worker := scheduler.NewWorker(sched, canceller, 50*time.Millisecond, logger)
		go worker.Run(ctx)

		select {
		case delivered := <-canceller.done:
			assert.Equal(t, orderID, delivered)
		case <-time.After(5 * time.Second):
			t.Fatal("cancellation task was never delivered")
		}

		// The task was popped, so it is not delivered again.
		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, 1, canceller.callCount())
	})

	t.Run("future tasks stay queued", func(t *testing.T) {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		sched := scheduler.NewRedisScheduler(client, logger)
		canceller := newRecordingCanceller()

		require.NoError(t, sched.Schedule(context.Background(), uuid.New(), time.Hour))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		worker := scheduler.NewWorker(sched, canceller, 50*time.Millisecond, logger)
		go worker.Run(ctx)

		time.Sleep(300 * time.Millisecond)
		assert.Equal(t, 0, canceller.callCount())

		queued, err := client.ZCard(ctx, "order:cancel:due").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), queued)
	})

	t.Run("failed tasks are requeued with a delay", func(t *testing.T) {
		require.NoError(t, client.FlushDB(context.Background()).Err())
		sched := scheduler.NewRedisScheduler(client, logger)
		canceller := newRecordingCanceller()

		orderID := uuid.New()
		canceller.failIDs[orderID] = true
		require.NoError(t, sched.Schedule(context.Background(), orderID, 0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		worker := scheduler.NewWorker(sched, canceller, 50*time.Millisecond, logger)
		go worker.Run(ctx)

		select {
		case <-canceller.done:
		case <-time.After(5 * time.Second):
			t.Fatal("cancellation task was never attempted")
		}

		// After requeue: back on the queue, due in the future.
		assert.Eventually(t, func() bool {
			score, err := client.ZScore(context.Background(), "order:cancel:due", orderID.String()).Result()
			return err == nil && score > float64(time.Now().Unix())
		}, 2*time.Second, 50*time.Millisecond)
	})
}
