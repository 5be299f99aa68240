package main

// upload.go image storage for project entries

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var allowedImageExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true}

// ImageFile is an uploaded image as received from the client.
type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageStore stores an image under folder and returns a durable URL for it.
type ImageStore interface {
	Upload(ctx context.Context, folder string, img ImageFile) (string, error)
}

func imageExtension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedImageExtensions[ext] {
		return "", validationError("Only jpg, jpeg and png images are allowed")
	}
	return ext, nil
}

func newImageStore(ctx context.Context, cfg *Config) (ImageStore, error) {
	switch cfg.UploadBackend {
	case "s3":
		return NewS3ImageStore(ctx, cfg)
	case "disk":
		return NewDiskImageStore(cfg.UploadDir, cfg.PublicURL), nil
	}
	return nil, fmt.Errorf("unsupported upload backend %q", cfg.UploadBackend)
}

type s3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

type S3ImageStore struct {
	client  s3PutAPI
	bucket  string
	baseURL string
	now     func() time.Time
	newID   func() string
}

func NewS3ImageStore(ctx context.Context, cfg *Config) (*S3ImageStore, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3ImageStore(client, cfg.S3Bucket, s3PublicURL(cfg)), nil
}

func newS3ImageStore(client s3PutAPI, bucket, baseURL string) *S3ImageStore {
	return &S3ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func s3PublicURL(cfg *Config) string {
	if cfg.S3PublicURL != "" {
		return cfg.S3PublicURL
	}
	if cfg.S3Endpoint != "" {
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}

// objectKey lays images out as <folder>/<yyyy>/<mm>/<dd>/<uuid>.<ext>.
func (s *S3ImageStore) objectKey(folder, ext string) string {
	d := s.now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.%s", folder, d.Year(), d.Month(), d.Day(), s.newID(), ext)
}

func (s *S3ImageStore) Upload(ctx context.Context, folder string, img ImageFile) (string, error) {
	ext, err := imageExtension(img.Filename)
	if err != nil {
		return "", err
	}

	key := s.objectKey(folder, ext)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   img.Body,
	}
	if img.ContentType != "" {
		in.ContentType = aws.String(img.ContentType)
	}
	if img.Size > 0 {
		in.ContentLength = aws.Int64(img.Size)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", infraError("Error uploading image", err)
	}
	return s.baseURL + "/" + key, nil
}

// DiskImageStore keeps images under a local directory served at /uploads/.
type DiskImageStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewDiskImageStore(dir, publicURL string) *DiskImageStore {
	return &DiskImageStore{dir: dir, baseURL: strings.TrimRight(publicURL, "/"), now: time.Now}
}

func (s *DiskImageStore) Upload(ctx context.Context, folder string, img ImageFile) (string, error) {
	if _, err := imageExtension(img.Filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", infraError("Error uploading image", err)
	}

	target := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", infraError("Error uploading image", err)
	}

	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), filepath.Base(img.Filename))
	f, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return "", infraError("Error uploading image", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, img.Body); err != nil {
		return "", infraError("Error uploading image", err)
	}
	if err := f.Close(); err != nil {
		return "", infraError("Error uploading image", err)
	}

	return s.baseURL + path.Join("/uploads", folder, url.PathEscape(name)), nil
}
