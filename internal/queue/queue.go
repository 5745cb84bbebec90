package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/USSTM/doc-gateway/internal/storage"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
)

type TaskQueue struct {
	client *asynq.Client
}

func NewQueue(cfg *config.RedisConfig) (*TaskQueue, error) {
	client := asynq.NewClient(redisOpt(cfg))

	// Activate and test the connection
	if err := client.Ping(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis queue: %w", err)
	}

	logging.Info("Connected to Redis task queue")

	return &TaskQueue{client: client}, nil
}

func (q *TaskQueue) Enqueue(ctx context.Context, taskType string, data interface{}, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return q.client.EnqueueContext(ctx, asynq.NewTask(taskType, payload), opts...)
}

// ReportOrphan schedules removal of an object no row references.
func (q *TaskQueue) ReportOrphan(ctx context.Context, storedName string) error {
	info, err := q.Enqueue(ctx, TypeOrphanCleanup, OrphanCleanupPayload{StoredName: storedName},
		asynq.MaxRetry(OrphanCleanupMaxRetry))
	if err != nil {
		return fmt.Errorf("failed to enqueue orphan cleanup: %w", err)
	}
	logging.FromContext(ctx).Info("Orphan cleanup scheduled", "stored_name", storedName, "task_id", info.ID)
	return nil
}

func (q *TaskQueue) Close() error {
	return q.client.Close()
}

const (
	TypeOrphanCleanup = "storage:orphan_cleanup"

	// OrphanCleanupMaxRetry bounds retries; an object still present after
	// that stays as a tolerated orphan.
	OrphanCleanupMaxRetry = 3
)

type OrphanCleanupPayload struct {
	StoredName string `json:"stored_name"`
}

// ReferenceChecker reports whether a stored name still backs a row.
type ReferenceChecker interface {
	GetDocumentByStoredName(ctx context.Context, storedName string) (db.Document, error)
}

// OrphanCleaner removes orphaned objects unless a row references them again.
type OrphanCleaner struct {
	docs  ReferenceChecker
	blobs storage.BlobStore
}

func NewOrphanCleaner(docs ReferenceChecker, blobs storage.BlobStore) *OrphanCleaner {
	return &OrphanCleaner{docs: docs, blobs: blobs}
}

func (c *OrphanCleaner) HandleOrphanCleanup(ctx context.Context, t *asynq.Task) error {
	var p OrphanCleanupPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if p.StoredName == "" {
		return fmt.Errorf("empty stored name: %w", asynq.SkipRetry)
	}

	row, err := c.docs.GetDocumentByStoredName(ctx, p.StoredName)
	switch {
	case err == nil:
		logging.Info("Skipping orphan cleanup, object is referenced", "stored_name", p.StoredName, "document_id", row.ID)
		return nil
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("checking references for %s: %w", p.StoredName, err)
	}

	if err := c.blobs.Remove(ctx, p.StoredName); err != nil {
		return fmt.Errorf("removing orphan %s: %w", p.StoredName, err)
	}

	logging.Info("Orphaned object removed", "stored_name", p.StoredName)
	return nil
}

type Worker struct {
	server  *asynq.Server
	cleaner *OrphanCleaner
}

func NewWorker(cfg *config.RedisConfig, cleaner *OrphanCleaner) *Worker {
	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logging.Error("process task failed",
					"type", task.Type(),
					"payload", string(task.Payload()),
					"retry", retried,
					"max_retry", maxRetry,
					"error", err)
			}),
		},
	)

	return &Worker{
		server:  server,
		cleaner: cleaner,
	}
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOrphanCleanup, w.cleaner.HandleOrphanCleanup)
	return mux
}

// Run processes tasks until the process receives SIGTERM or SIGINT.
func (w *Worker) Run() error {
	return w.server.Run(w.Mux())
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
