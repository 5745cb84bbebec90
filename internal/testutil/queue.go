package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/queue"
	"github.com/hibiken/asynq"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const redisImage = "redis:7-alpine"

// TestQueue is a TaskQueue backed by a reusable redis container, plus an
// inspector for asserting on enqueued orphan reports.
type TestQueue struct {
	Queue     *queue.TaskQueue
	Config    config.RedisConfig
	Redis     *rdb.Client
	Inspector *asynq.Inspector
}

func NewTestQueue(t *testing.T) *TestQueue {
	t.Helper()
	ctx := context.Background()

	ready := wait.ForAll(
		wait.ForLog("Ready to accept connections"),
		wait.ForListeningPort("6379/tcp"),
	).WithDeadline(30 * time.Second)

	container, err := redis.Run(ctx, redisImage,
		testcontainers.WithReuseByName("doc-gateway-test-redis"),
		testcontainers.WithWaitStrategy(ready),
	)
	require.NoError(t, err, "start redis container")

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "resolve redis endpoint")

	cfg := config.RedisConfig{Addr: addr}
	tq, err := queue.NewQueue(&cfg)
	require.NoError(t, err, "connect task queue")

	return &TestQueue{
		Queue:     tq,
		Config:    cfg,
		Redis:     rdb.NewClient(&rdb.Options{Addr: addr}),
		Inspector: asynq.NewInspector(asynq.RedisClientOpt{Addr: addr}),
	}
}

// Cleanup flushes redis so tests sharing the container start empty.
func (q *TestQueue) Cleanup(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := q.Redis.FlushDB(ctx).Err(); err != nil {
		t.Logf("WARNING: flush redis: %v", err)
	}
}

// PendingOrphans returns the stored names of orphan reports waiting in
// the default queue.
func (q *TestQueue) PendingOrphans(t *testing.T) []string {
	t.Helper()
	tasks, err := q.Inspector.ListPendingTasks("default")
	require.NoError(t, err)

	var names []string
	for _, task := range tasks {
		if task.Type != queue.TypeOrphanCleanup {
			continue
		}
		var p queue.OrphanCleanupPayload
		require.NoError(t, json.Unmarshal(task.Payload, &p))
		names = append(names, p.StoredName)
	}
	return names
}

func (q *TestQueue) Close() {
	if q.Queue != nil {
		q.Queue.Close()
	}
	if q.Inspector != nil {
		q.Inspector.Close()
	}
	if q.Redis != nil {
		q.Redis.Close()
	}
}
