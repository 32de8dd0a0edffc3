package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorageDisk  = "disk"
	StorageMinio = "minio"

	EnvProduction = "production"
)

// Config holds the application configuration.
type Config struct {
	ServerPort  int    `envconfig:"SERVER_PORT" default:"8080"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Verbose     bool   `envconfig:"VERBOSE" default:"false"`

	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenExpire time.Duration `envconfig:"ACCESS_TOKEN_EXPIRE" default:"30m"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"disk"`
	UploadRoot     string `envconfig:"UPLOAD_ROOT" default:"./uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"0"`

	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	AuthRateLimit      float64  `envconfig:"AUTH_RATE_LIMIT" default:"5"`
	AuthRateBurst      int      `envconfig:"AUTH_RATE_BURST" default:"10"`
}

// Load reads the configuration from environment variables.
func Load(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate checks combinations envconfig tags cannot express.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must not be negative")
	}
	if c.AccessTokenExpire <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE must be positive")
	}

	switch strings.ToLower(c.StorageBackend) {
	case StorageDisk:
		if strings.TrimSpace(c.UploadRoot) == "" {
			return fmt.Errorf("UPLOAD_ROOT is required for the disk backend")
		}
	case StorageMinio:
		var missing []string
		for name, v := range map[string]string{
			"MINIO_ENDPOINT":   c.MinioEndpoint,
			"MINIO_ACCESS_KEY": c.MinioAccessKey,
			"MINIO_SECRET_KEY": c.MinioSecretKey,
			"MINIO_BUCKET":     c.MinioBucket,
		} {
			if strings.TrimSpace(v) == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("minio backend misconfigured, missing: %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// IsProduction reports whether internal error detail must be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}
