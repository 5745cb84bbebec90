package container

import (
	"testing"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlobStore(t *testing.T) {
	t.Run("disk driver", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: "disk", UploadPath: t.TempDir()}}

		blobs, err := NewBlobStore(cfg)
		require.NoError(t, err)
		assert.IsType(t, &storage.Disk{}, blobs)
	})

	t.Run("s3 driver", func(t *testing.T) {
		cfg := &config.Config{
			Storage: config.StorageConfig{Driver: "s3"},
			AWS: config.AWSConfig{
				Region:          "us-east-1",
				AccessKeyID:     "test",
				SecretAccessKey: "test",
				Bucket:          "documents",
			},
		}

		blobs, err := NewBlobStore(cfg)
		require.NoError(t, err)
		assert.IsType(t, &storage.S3{}, blobs)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewBlobStore(&config.Config{Storage: config.StorageConfig{Driver: "ftp"}})
		assert.Error(t, err)
	})
}
