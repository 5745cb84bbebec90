package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/USSTM/doc-gateway/internal/aws"
	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/database"
	"github.com/USSTM/doc-gateway/internal/queue"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
)

var (
	getPtr     = flag.String("get", "", "Stored name of object to download")
	listPtr    = flag.Bool("list", false, "List all objects in the document bucket")
	orphansPtr = flag.Bool("orphans", false, "List objects without a document row")
	enqueuePtr = flag.Bool("enqueue", false, "With -orphans, queue each orphan for cleanup")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	s3Service, err := aws.NewS3Service(cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}

	ctx := context.Background()

	// create bucket if it doesn't exist (for localstack)
	if cfg.AWS.EndpointURL != "" {
		if err := s3Service.CreateBucket(ctx); err != nil {
			log.Fatalf("Warning: failed to ensure bucket exists: %v", err)
		}
	}

	switch {
	case *getPtr != "":
		download(ctx, s3Service, *getPtr)
	case *listPtr:
		list(ctx, s3Service)
	case *orphansPtr:
		orphans(ctx, cfg, s3Service, *enqueuePtr)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func download(ctx context.Context, s3Service *aws.S3Service, key string) {
	fmt.Printf("Retrieving %s from %s...\n", key, s3Service.Bucket())

	body, err := s3Service.GetObject(ctx, key)
	if err != nil {
		log.Fatalf("Failed to get file: %v", err)
	}
	defer body.Close()

	outFile, err := os.Create(key)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, body); err != nil {
		log.Fatalf("Failed to save file: %v", err)
	}
	fmt.Printf("File saved to %s\n", key)
}

func list(ctx context.Context, s3Service *aws.S3Service) {
	fmt.Printf("Listing objects in bucket %s...\n", s3Service.Bucket())
	objects, err := s3Service.ListObjects(ctx)
	if err != nil {
		log.Fatalf("Failed to list objects: %v", err)
	}

	if len(objects) == 0 {
		fmt.Println("No objects found.")
		return
	}

	fmt.Printf("%-44s %-10s %s\n", "Key", "Size", "LastModified")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, obj := range objects {
		fmt.Printf("%-44s %-10s %s\n",
			awssdk.ToString(obj.Key),
			humanize.Bytes(uint64(awssdk.ToInt64(obj.Size))),
			awssdk.ToTime(obj.LastModified).Format(time.RFC3339))
	}
}

// orphans reports bucket objects that no document row references.
func orphans(ctx context.Context, cfg *config.Config, s3Service *aws.S3Service, enqueue bool) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var tasks *queue.TaskQueue
	if enqueue {
		tasks, err = queue.NewQueue(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to queue: %v", err)
		}
		defer tasks.Close()
	}

	objects, err := s3Service.ListObjects(ctx)
	if err != nil {
		log.Fatalf("Failed to list objects: %v", err)
	}

	found := 0
	for _, obj := range objects {
		key := awssdk.ToString(obj.Key)
		_, err := db.Queries().GetDocumentByStoredName(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Fatalf("Failed to look up %s: %v", key, err)
		}

		found++
		fmt.Printf("orphan: %s (%s)\n", key, humanize.Bytes(uint64(awssdk.ToInt64(obj.Size))))
		if tasks != nil {
			if err := tasks.ReportOrphan(ctx, key); err != nil {
				log.Fatalf("Failed to queue %s: %v", key, err)
			}
		}
	}

	fmt.Printf("%d orphan(s) out of %d object(s)\n", found, len(objects))
}
