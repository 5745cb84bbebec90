package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/USSTM/doc-gateway/internal/aws"
	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestLocalStack struct {
	Container *localstack.LocalStackContainer
	Config    config.AWSConfig
	S3        *aws.S3Service
}

func NewTestLocalStack(t *testing.T) *TestLocalStack {
	ctx := context.Background()

	container, err := localstack.Run(ctx,
		"localstack/localstack:3.0",
		testcontainers.WithReuseByName("doc-gateway-test-localstack"),
		testcontainers.CustomizeRequest(testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Env: map[string]string{
					"SERVICES": "s3",
				},
			},
		}),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Ready.").
					WithOccurrence(1).
					WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("4566/tcp").
					WithStartupTimeout(60*time.Second),
			),
		),
	)
	require.NoError(t, err, "Failed to start LocalStack container")

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err, "Failed to get LocalStack endpoint")

	cfg := config.AWSConfig{
		Region:          "us-east-1",
		EndpointURL:     endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Bucket:          fmt.Sprintf("documents-%d", time.Now().UnixNano()),
	}

	s3Service, err := aws.NewS3Service(cfg)
	require.NoError(t, err, "Failed to create S3 service")
	require.NoError(t, s3Service.CreateBucket(ctx), "Failed to create bucket")

	ls := &TestLocalStack{
		Container: container,
		Config:    cfg,
		S3:        s3Service,
	}

	t.Cleanup(func() {
		ls.Close()
	})

	return ls
}

func (ls *TestLocalStack) Close() {
	if ls.Container != nil {
		ls.Container.Terminate(context.Background())
	}
}
