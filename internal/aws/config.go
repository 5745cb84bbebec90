package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const maxRetryAttempts = 3

var errPartialCredentials = errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")

// LoadAWSConfig resolves the SDK config for the document bucket. Static
// keys from the environment take precedence over the default chain.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return aws.Config{}, errPartialCredentials
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCredentials(cfg)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func staticCredentials(cfg config.AWSConfig) aws.CredentialsProvider {
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "doc-gateway-env",
		}, nil
	}))
}

// s3Options points the client at a custom endpoint such as localstack,
// which only serves path-style bucket addressing.
func s3Options(cfg config.AWSConfig) func(*s3.Options) {
	return func(o *s3.Options) {
		if cfg.EndpointURL == "" {
			return
		}
		o.BaseEndpoint = aws.String(cfg.EndpointURL)
		o.UsePathStyle = true
	}
}
