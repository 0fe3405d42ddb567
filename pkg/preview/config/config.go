package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/previewd/previewd/pkg/preview"
	fsstorage "github.com/previewd/previewd/pkg/preview/storage/fs"
	memorystorage "github.com/previewd/previewd/pkg/preview/storage/memory"
	s3storage "github.com/previewd/previewd/pkg/preview/storage/s3"
)

// ServerConfig represents server configuration for the preview service.
//
// STORAGE_URL selects the blob storage backend:
//
//	memory://                              - in-memory storage (default)
//	file:///path/to/data                   - filesystem storage
//	s3://bucket?region=us-east-1           - S3 storage
//
// S3 credentials and endpoint come from the AWS_* variables below.
type ServerConfig struct {
	Port            string `env:"PORT" env-default:"8080"`
	Environment     string `env:"ENVIRONMENT" env-default:"development"`
	JWTSecret       string `env:"JWT_SECRET" env-default:"foosecret"`
	MaxPayloadBytes int64  `env:"MAX_PAYLOAD_BYTES" env-default:"102800"`
	StorageURL      string `env:"STORAGE_URL" env-default:"memory://"`
	S3              S3Config
}

// S3Config carries AWS settings for the s3:// storage backend
type S3Config struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	UsePathStyle    bool   `env:"AWS_S3_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// Load reads server configuration from the environment
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.MaxPayloadBytes <= 0 {
		return errors.New("max payload bytes must be positive")
	}
	if _, err := c.parseStorageURL(); err != nil {
		return err
	}
	return nil
}

// BuildService creates a preview.Service wired to the configured blob store
func (c *ServerConfig) BuildService() (preview.Service, error) {
	store, err := c.BuildBlobStore()
	if err != nil {
		return nil, err
	}
	return preview.New(preview.WithBlobStore(store))
}

// BuildBlobStore constructs the blob storage backend named by StorageURL
func (c *ServerConfig) BuildBlobStore() (preview.BlobStore, error) {
	u, err := c.parseStorageURL()
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "memory":
		return memorystorage.New(), nil

	case "file":
		return fsstorage.New(fsstorage.Config{BaseDir: u.Path})

	case "s3":
		cfg := s3storage.Config{
			Bucket:                 u.Host,
			Region:                 c.S3.Region,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		}
		// Query parameters override the AWS_* environment settings.
		q := u.Query()
		if v := q.Get("region"); v != "" {
			cfg.Region = v
		}
		if v := q.Get("endpoint"); v != "" {
			cfg.Endpoint = v
		}
		return s3storage.New(cfg)
	}

	// parseStorageURL already rejects unknown schemes
	return nil, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
}

func (c *ServerConfig) parseStorageURL() (*url.URL, error) {
	u, err := url.Parse(c.StorageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid storage url %q: %w", c.StorageURL, err)
	}
	switch u.Scheme {
	case "memory", "file", "s3":
	default:
		return nil, fmt.Errorf("unsupported storage scheme %q (want memory, file, or s3)", u.Scheme)
	}
	if u.Scheme == "s3" && u.Host == "" {
		return nil, errors.New("s3 storage url requires a bucket name")
	}
	if u.Scheme == "file" && u.Path == "" {
		return nil, errors.New("file storage url requires a path")
	}
	return u, nil
}
