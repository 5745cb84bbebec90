package aws

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNoSuchKey is returned when the bucket holds no object under the key.
var ErrNoSuchKey = errors.New("s3 object not found")

type S3Service struct {
	client *s3.Client
	bucket string
}

func NewS3Service(cfg config.AWSConfig) (*S3Service, error) {
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return &S3Service{
		client: s3.NewFromConfig(awsCfg, s3Options(cfg)),
		bucket: cfg.Bucket,
	}, nil
}

func (s *S3Service) Bucket() string {
	return s.bucket
}

func (s *S3Service) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}
	return nil
}

func (s *S3Service) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file from S3: %w", mapNotFound(err))
	}

	return output.Body, nil
}

// HeadObject returns the stored size of key.
func (s *S3Service) HeadObject(ctx context.Context, key string) (int64, error) {
	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to stat file in S3: %w", mapNotFound(err))
	}
	return aws.ToInt64(output.ContentLength), nil
}

// DeleteObject removes key. S3 treats a missing key as success.
func (s *S3Service) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

func (s *S3Service) CreateBucket(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return err
	}
	return nil
}

func (s *S3Service) ListObjects(ctx context.Context) ([]types.Object, error) {
	output, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return output.Contents, nil
}

func mapNotFound(err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNoSuchKey, err)
	}
	return err
}
