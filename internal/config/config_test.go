package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "disk", cfg.Storage.Driver)
	assert.Equal(t, int64(1<<20), cfg.Storage.MaxFileSize)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, cfg.CORS.AllowedMethods)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("STORAGE_MAX_FILE_SIZE", "2048")
	t.Setenv("JWT_EXPIRY", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, int64(2048), cfg.Storage.MaxFileSize)
	assert.Equal(t, 15*time.Minute, cfg.JWT.Expiry)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "ftp")
		_, err := Load()
		assert.ErrorContains(t, err, "unknown storage driver")
	})

	t.Run("default signing key in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SIGNING_KEY")
	})
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "docs", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=docs sslmode=disable", cfg.ConnectionString())
}
