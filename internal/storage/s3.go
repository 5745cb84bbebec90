package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/USSTM/doc-gateway/internal/aws"
)

// S3API is the subset of aws.S3Service the S3 store needs.
type S3API interface {
	Bucket() string
	PutObject(ctx context.Context, key string, body io.Reader, contentType string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	HeadObject(ctx context.Context, key string) (int64, error)
	DeleteObject(ctx context.Context, key string) error
}

// S3 stores objects in a single bucket keyed by stored name.
type S3 struct {
	api S3API
}

func NewS3(api S3API) *S3 {
	return &S3{api: api}
}

// Put buffers the body so the SDK gets a seekable payload. Upload size is
// bounded by the caller.
func (s *S3) Put(ctx context.Context, name string, r io.Reader, contentType string) (Object, error) {
	if !validName(name) {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, contextReader{ctx: ctx, r: r})
	if err != nil {
		return Object{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.api.PutObject(ctx, name, bytes.NewReader(buf.Bytes()), contentType); err != nil {
		return Object{}, err
	}

	return Object{
		Name: name,
		Path: fmt.Sprintf("s3://%s/%s", s.api.Bucket(), name),
		Size: n,
	}, nil
}

func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	rc, err := s.api.GetObject(ctx, name)
	if err != nil {
		return nil, mapS3Error(name, err)
	}
	return rc, nil
}

func (s *S3) Size(ctx context.Context, name string) (int64, error) {
	n, err := s.api.HeadObject(ctx, name)
	if err != nil {
		return 0, mapS3Error(name, err)
	}
	return n, nil
}

func (s *S3) Remove(ctx context.Context, name string) error {
	return s.api.DeleteObject(ctx, name)
}

func mapS3Error(name string, err error) error {
	if errors.Is(err, aws.ErrNoSuchKey) {
		return fmt.Errorf("%s: %w", name, ErrObjectNotFound)
	}
	return err
}
