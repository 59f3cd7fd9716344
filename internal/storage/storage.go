// Package storage persists uploaded project images and returns the public
// URL under which each one is served.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/folio/folio/internal/config"
	"github.com/sirupsen/logrus"
)

// Storage stores a named object and returns its public URL.
type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// New builds the backend selected by cfg.Driver.
func New(ctx context.Context, cfg *config.StorageConfig, logger *logrus.Logger) (Storage, error) {
	switch cfg.Driver {
	case config.StorageS3:
		return NewS3(ctx, cfg, logger)
	default:
		return NewLocal(cfg.LocalDir, cfg.PublicPrefix, logger)
	}
}

// Local writes files into a directory served by the HTTP router.
type Local struct {
	dir    string
	prefix string
	logger *logrus.Logger
}

func NewLocal(dir, prefix string, logger *logrus.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Local{dir: dir, prefix: strings.TrimRight(prefix, "/"), logger: logger}, nil
}

func (l *Local) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(name)
	f, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		l.logger.WithError(err).WithField("name", name).Error("Failed to write upload")
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return l.prefix + "/" + name, nil
}

// S3 uploads objects to a bucket.
type S3 struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *logrus.Logger
}

func NewS3(ctx context.Context, cfg *config.StorageConfig, logger *logrus.Logger) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	logger.WithField("bucket", cfg.S3Bucket).Info("S3 storage initialized")
	return &S3{client: client, bucket: cfg.S3Bucket, publicURL: publicURL, logger: logger}, nil
}

func (s *S3) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	key := "projects/" + filepath.Base(name)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to upload object to S3")
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return s.publicURL + "/" + key, nil
}
