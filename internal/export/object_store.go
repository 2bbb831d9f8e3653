package export

import (
	"context"
	"fmt"
	"path"

	"data-preparation/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ObjectStore uploads exported files to an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewObjectStore connects to the configured endpoint and checks the bucket exists.
func NewObjectStore(ctx context.Context, cfg config.ObjectStoreConfig, logger *zap.Logger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s not found", cfg.Bucket)
	}

	return &ObjectStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, logger: logger}, nil
}

// Upload puts the local file under prefix/key and returns its s3:// URI.
func (s *ObjectStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	objectKey := path.Join(s.prefix, key)
	info, err := s.client.FPutObject(ctx, s.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Object uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", objectKey),
		zap.Int64("bytes", info.Size))

	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey), nil
}

// FromConfig builds the exporter described by cfg. It returns nil when export is
// disabled.
func FromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Exporter, error) {
	if cfg.Export.Dir == "" {
		return nil, nil
	}

	var uploader Uploader
	if cfg.Export.ObjectStore != nil {
		store, err := NewObjectStore(ctx, *cfg.Export.ObjectStore, logger)
		if err != nil {
			return nil, err
		}
		uploader = store
	}
	return NewExporter(cfg.Export.Dir, uploader, logger), nil
}
