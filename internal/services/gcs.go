package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSBlobService stores receipt images in Google Cloud Storage. The container
// name is used as an object prefix inside a single bucket.
type GCSBlobService struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobService creates a client for GCS_BUCKET. GCS_ENDPOINT points the
// client at an emulator such as fake-gcs-server.
func NewGCSBlobService(ctx context.Context) (*GCSBlobService, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET environment variable is required")
	}

	var opts []option.ClientOption
	if endpoint := os.Getenv("GCS_ENDPOINT"); endpoint != "" {
		slog.Info("using custom GCS endpoint", "endpoint", endpoint)
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	slog.Info("gcs blob service initialized successfully", "bucket", bucket)
	return &GCSBlobService{client: client, bucket: bucket}, nil
}

func (s *GCSBlobService) objectName(containerName, blobName string) string {
	if containerName == "" {
		return blobName
	}
	return containerName + "/" + blobName
}

// UploadBytes writes data to gs://bucket/containerName/blobName.
func (s *GCSBlobService) UploadBytes(ctx context.Context, containerName, blobName string, data []byte, contentType string) error {
	name := s.objectName(containerName, blobName)
	slog.Info("uploading object", "bucket", s.bucket, "object", name, "size_bytes", len(data))

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", name, err)
	}
	return nil
}

// DownloadBytes reads an object and its content type.
func (s *GCSBlobService) DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, string, error) {
	name := s.objectName(containerName, blobName)
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", fmt.Errorf("object %s not found: %w", name, err)
		}
		return nil, "", fmt.Errorf("failed to open object %s: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %s: %w", name, err)
	}
	return data, r.Attrs.ContentType, nil
}

// Close releases the underlying client.
func (s *GCSBlobService) Close() error {
	return s.client.Close()
}
