package main

// config.go runtime settings, read from .env, the environment and flags

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DBDriver       string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	FrontendURLs   []string
	UploadBackend  string
	UploadDir      string
	PublicURL      string
	MaxUploadBytes int64
	S3Region       string
	S3Bucket       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
	LogLevel       string
	SchemaCacheTTL time.Duration
}

// LoadDefaults fills in development values. JWTSecret stays empty and must be
// supplied by the environment.
func (c *Config) LoadDefaults() {
	c.Addr = ":8081"
	c.DBDriver = "sqlite"
	c.DatabaseDSN = "portfolio.db"
	c.TokenTTL = time.Hour
	c.UploadBackend = "disk"
	c.UploadDir = "uploads"
	c.PublicURL = "http://localhost:8081"
	c.MaxUploadBytes = 10 << 20
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.SchemaCacheTTL = 5 * time.Minute
}

// loadDotEnv reads envFile into the process environment. A missing file is
// reported but not fatal.
func loadDotEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

// LoadEnv overlays values present in the environment.
func (c *Config) LoadEnv() error {
	setString(&c.Addr, "ADDR")
	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DatabaseDSN, "DATABASE_DSN")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.UploadBackend, "UPLOAD_BACKEND")
	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.PublicURL, "PUBLIC_URL")
	setString(&c.S3Region, "S3_REGION")
	setString(&c.S3Bucket, "S3_BUCKET")
	setString(&c.S3Endpoint, "S3_ENDPOINT")
	setString(&c.S3AccessKey, "S3_ACCESS_KEY")
	setString(&c.S3SecretKey, "S3_SECRET_KEY")
	setString(&c.S3PublicURL, "S3_PUBLIC_URL")
	setString(&c.LogLevel, "LOG_LEVEL")

	for _, key := range []string{"FRONTEND_URL", "FRONTEND_URL2"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			c.FrontendURLs = append(c.FrontendURLs, v)
		}
	}

	if err := setDuration(&c.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.SchemaCacheTTL, "SCHEMA_CACHE_TTL"); err != nil {
		return err
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.UploadBackend {
	case "disk":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 upload backend")
		}
	default:
		return fmt.Errorf("unsupported UPLOAD_BACKEND %q", c.UploadBackend)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
