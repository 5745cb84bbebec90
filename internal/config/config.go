package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Storage   StorageConfig
	AWS       AWSConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8080"`
	AppEnv       string        `envconfig:"APP_ENV" default:"development"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DB" default:"postgres"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
}

type JWTConfig struct {
	SigningKey string        `envconfig:"JWT_SIGNING_KEY" default:"default-signing-key-change-in-production"`
	Issuer     string        `envconfig:"JWT_ISSUER" default:"doc-gateway"`
	Expiry     time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig selects where document bytes live. Driver is "disk" or "s3".
type StorageConfig struct {
	Driver      string `envconfig:"STORAGE_DRIVER" default:"disk"`
	UploadPath  string `envconfig:"UPLOAD_PATH" default:"uploads"`
	MaxFileSize int64  `envconfig:"STORAGE_MAX_FILE_SIZE" default:"1048576"`
}

type AWSConfig struct {
	Region          string `envconfig:"AWS_REGION" default:"us-east-1"`
	EndpointURL     string `envconfig:"AWS_ENDPOINT_URL"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	Bucket          string `envconfig:"AWS_S3_BUCKET" default:"documents"`
}

type LoggingConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"text"`
	Filename   string `envconfig:"LOG_FILE" default:"logs/doc-gateway.log"`
	MaxSize    int    `envconfig:"LOG_MAX_SIZE" default:"100"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	MaxAge     int    `envconfig:"LOG_MAX_AGE" default:"28"`
	Compress   bool   `envconfig:"LOG_COMPRESS" default:"true"`
}

type CORSConfig struct {
	AllowedOrigins   []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	AllowedMethods   []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Accept,Authorization,Content-Type"`
	ExposedHeaders   []string `envconfig:"CORS_EXPOSED_HEADERS" default:"Content-Disposition"`
	AllowCredentials bool     `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           int      `envconfig:"CORS_MAX_AGE" default:"300"`
}

// RateLimitConfig bounds the public auth routes per client IP.
type RateLimitConfig struct {
	AuthRequests int           `envconfig:"RATE_LIMIT_AUTH_REQUESTS" default:"10"`
	AuthWindow   time.Duration `envconfig:"RATE_LIMIT_AUTH_WINDOW" default:"1m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	switch cfg.Storage.Driver {
	case "disk", "s3":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.MaxFileSize <= 0 {
		return nil, errors.New("storage max file size must be positive")
	}
	if cfg.Server.AppEnv == "production" && cfg.JWT.SigningKey == "default-signing-key-change-in-production" {
		return nil, errors.New("JWT_SIGNING_KEY must be set in production")
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.Server.AppEnv == "production"
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
