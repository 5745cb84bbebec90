package container

import (
	"context"
	"fmt"

	"github.com/USSTM/doc-gateway/internal/api"
	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/aws"
	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/database"
	"github.com/USSTM/doc-gateway/internal/documents"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/USSTM/doc-gateway/internal/queue"
	"github.com/USSTM/doc-gateway/internal/rbac"
	"github.com/USSTM/doc-gateway/internal/storage"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config        *config.Config
	Database      *database.Database
	Queue         *queue.TaskQueue
	RedisClient   *redis.Client
	Blobs         storage.BlobStore
	AuthService   *auth.AuthService
	Authenticator *auth.Authenticator
	Guard         *auth.Guard
	Documents     *documents.Manager
	Server        *api.Server
}

func New(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}
	c.Database = db

	taskQueue, err := queue.NewQueue(&cfg.Redis)
	if err != nil {
		c.Cleanup()
		return nil, err
	}
	c.Queue = taskQueue

	// Two separate Redis connection pools are used: the asynq task
	// queue manages its own connection, and this client holds revoked
	// token ids.
	c.RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	jwtService, err := auth.NewJWTService([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		c.Cleanup()
		return nil, err
	}

	blobs, err := NewBlobStore(cfg)
	if err != nil {
		c.Cleanup()
		return nil, err
	}
	c.Blobs = blobs

	revocations := auth.NewRevocationStore(c.RedisClient)
	c.AuthService = auth.NewAuthService(db.Queries(), jwtService, revocations)
	c.Authenticator = auth.NewAuthenticator(jwtService, revocations)
	c.Guard = auth.NewGuard(rbac.NewBuilder(db.Queries()))
	c.Documents = documents.NewManager(db.Queries(), blobs, taskQueue)

	c.Server = api.NewServer(db, c.AuthService, c.Authenticator, c.Guard, c.Documents, blobs, cfg.Storage.MaxFileSize)

	logging.Info("Connected to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port)

	return c, nil
}

// NewBlobStore builds the configured document byte store. The worker
// shares it with the API so both remove objects from the same place.
func NewBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s3Service, err := aws.NewS3Service(cfg.AWS)
		if err != nil {
			return nil, err
		}

		// localstack-specific config (buckets are not managed by app in prod)
		if cfg.AWS.EndpointURL != "" {
			if err := s3Service.CreateBucket(context.Background()); err != nil {
				logging.Info("S3 bucket creation attempted", "bucket", cfg.AWS.Bucket, "result", err)
			}
		}

		logging.Info("Using S3 document storage", "bucket", s3Service.Bucket())
		return storage.NewS3(s3Service), nil
	case "disk":
		disk, err := storage.NewDisk(cfg.Storage.UploadPath)
		if err != nil {
			return nil, err
		}
		logging.Info("Using disk document storage", "path", disk.Root())
		return disk, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (c *Container) Cleanup() {
	if c.Queue != nil {
		c.Queue.Close()
		logging.Info("Queue client closed")
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
		logging.Info("Redis client closed")
	}
	if c.Database != nil {
		c.Database.Close()
		logging.Info("Database connection closed")
	}
}
