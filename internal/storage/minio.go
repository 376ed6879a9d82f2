package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/FACorreiaa/go-blog-api/config"
)

var _ ObjectStorage = (*MinioStorage)(nil)

// MinioStorage stores objects in any S3-compatible backend.
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *slog.Logger
}

func NewMinioStorage(cfg config.S3Config, logger *slog.Logger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		logger:    logger,
	}, nil
}

// EnsureBucket creates the configured bucket if it does not exist yet.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", s.bucket, err)
	}
	s.logger.InfoContext(ctx, "Created object storage bucket", slog.String("bucket", s.bucket))
	return nil
}

func (s *MinioStorage) UploadMany(ctx context.Context, files []File) ([]StoredObject, error) {
	objects := make([]StoredObject, 0, len(files))
	for _, f := range files {
		key := fmt.Sprintf("posts/%s%s", uuid.NewString(), path.Ext(f.Name))

		_, err := s.client.PutObject(ctx, s.bucket, key, f.Reader, f.Size, minio.PutObjectOptions{
			ContentType: f.ContentType,
		})
		if err != nil {
			s.rollback(ctx, objects)
			return nil, fmt.Errorf("failed to upload %q: %w", f.Name, err)
		}

		objects = append(objects, StoredObject{
			Key: key,
			URL: fmt.Sprintf("%s/%s", s.publicURL, key),
		})
	}
	return objects, nil
}

func (s *MinioStorage) DeleteMany(ctx context.Context, keys []string) error {
	var firstErr error
	for _, key := range keys {
		err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to remove object",
				slog.String("key", key), slog.Any("error", err))
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove %q: %w", key, err)
			}
		}
	}
	return firstErr
}

func (s *MinioStorage) rollback(ctx context.Context, objects []StoredObject) {
	for _, obj := range objects {
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			s.logger.WarnContext(ctx, "Failed to roll back uploaded object",
				slog.String("key", obj.Key), slog.Any("error", err))
		}
	}
}
