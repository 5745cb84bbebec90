package main

import (
	"log"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/container"
	"github.com/USSTM/doc-gateway/internal/database"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/USSTM/doc-gateway/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	blobs, err := container.NewBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize document storage: %v", err)
	}

	worker := queue.NewWorker(&cfg.Redis, queue.NewOrphanCleaner(db.Queries(), blobs))

	log.Println("Starting orphan cleanup worker...")
	if err := worker.Run(); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
