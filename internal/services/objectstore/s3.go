// Package objectstore mirrors completed exports to S3-compatible storage.
package objectstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for mirroring exports.
type Service interface {
	Mirror(ctx context.Context, manifest *models.ExportManifest) ([]string, error)
}

// Uploader is the subset of the s3manager uploader used here.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Storage uploads export artifacts to a bucket.
type S3Storage struct {
	uploader Uploader
	bucket   string
	prefix   string
	logger   zerolog.Logger
}

// NewS3 creates an S3Storage from cfg using AWS SDK v2. Static credentials are
// used when both keys are set, otherwise the default credential chain applies.
func NewS3(ctx context.Context, logger zerolog.Logger, cfg *models.S3Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return NewWithUploader(logger, s3manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

// NewWithUploader creates an S3Storage around an existing uploader (for testing).
func NewWithUploader(logger zerolog.Logger, uploader Uploader, bucket, prefix string) *S3Storage {
	return &S3Storage{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		logger:   logger,
	}
}

// Mirror uploads the export described by manifest and returns the object keys
// written. Directory exports are uploaded file by file under one key prefix.
func (s *S3Storage) Mirror(ctx context.Context, manifest *models.ExportManifest) ([]string, error) {
	info, err := os.Stat(manifest.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat export: %w", err)
	}

	if !info.IsDir() {
		key := s.Key(manifest.FileName)
		if err := s.Upload(ctx, manifest.FilePath, key); err != nil {
			return nil, err
		}
		return []string{key}, nil
	}

	var keys []string
	err = filepath.WalkDir(manifest.FilePath, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(manifest.FilePath, p)
		if err != nil {
			return err
		}
		key := s.Key(manifest.FileName, filepath.ToSlash(rel))
		if err := s.Upload(ctx, p, key); err != nil {
			return err
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return keys, err
	}
	return keys, nil
}

// Upload uploads a local file to key.
func (s *S3Storage) Upload(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.Debug().Str("bucket", s.bucket).Str("key", key).Msg("uploaded object")
	return nil
}

// Key returns the object key for the given name parts under the configured prefix.
func (s *S3Storage) Key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}
