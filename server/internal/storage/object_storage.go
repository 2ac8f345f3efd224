package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage writes objects to a bucket.
type ObjectStorage interface {
	PutObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
}

// MinioStorage implements ObjectStorage on top of MinIO or any S3-compatible store.
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig holds MinIO connection parameters.
type MinioConfig struct {
	Endpoint        string // host:port, e.g. "localhost:9000"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// Validate reports the first missing required setting.
func (c MinioConfig) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("minio endpoint is required")
	case c.AccessKeyID == "" || c.SecretAccessKey == "":
		return errors.New("minio credentials are required")
	case c.BucketName == "":
		return errors.New("minio bucket name is required")
	}
	return nil
}

// NewMinioStorage connects to MinIO and creates the bucket if it does not exist.
func NewMinioStorage(ctx context.Context, cfg MinioConfig) (*MinioStorage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[Minio] Connecting to %s...", cfg.Endpoint)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("[Minio] Bucket '%s' not found, creating it", cfg.BucketName)
		if err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket '%s': %w", cfg.BucketName, err)
		}
	}

	log.Printf("[Minio] Ready, bucket '%s'", cfg.BucketName)
	return &MinioStorage{client: client, bucketName: cfg.BucketName}, nil
}

// PutObject uploads size bytes from reader under objectKey.
func (s *MinioStorage) PutObject(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	info, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Printf("[Minio] Failed to upload '%s': %v", objectKey, err)
		return fmt.Errorf("upload object to minio: %w", err)
	}

	log.Printf("[Minio] Uploaded '%s' (%d bytes, ETag %s)", objectKey, info.Size, info.ETag)
	return nil
}
