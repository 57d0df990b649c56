package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobService stores receipt images in Azure Blob Storage.
type BlobService struct {
	client *azblob.Client

	// containers already ensured by this process
	ensured sync.Map
}

// NewBlobService creates a new BlobService instance.
func NewBlobService() (*BlobService, error) {
	blobURL := os.Getenv("BLOB_SERVICE_URL")
	if blobURL == "" {
		return nil, fmt.Errorf("BLOB_SERVICE_URL environment variable is required")
	}

	slog.Info("initializing blob service", "blob_url", blobURL)
	var client *azblob.Client

	// Check if running locally with Azurite (http endpoint)
	if isLocal(blobURL) {
		slog.Info("using Azurite shared key credentials for blob service")
		name, key := getAzuriteCredentials()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		var err2 error
		client, err2 = azblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
		if err2 != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err2)
		}
	} else {
		// Production: Managed Identity
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	slog.Info("blob service initialized successfully")
	return &BlobService{client: client}, nil
}

func (s *BlobService) ensureContainer(ctx context.Context, containerName string) {
	if _, ok := s.ensured.Load(containerName); ok {
		return
	}
	_, err := s.client.CreateContainer(ctx, containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		slog.Warn("failed to create container (may already exist)", "container", containerName, "error", err)
		return
	}
	s.ensured.Store(containerName, struct{}{})
}

// UploadBytes stores data under containerName/blobName with the given content type.
func (s *BlobService) UploadBytes(ctx context.Context, containerName, blobName string, data []byte, contentType string) error {
	slog.Info("uploading blob", "container", containerName, "blob_name", blobName, "size_bytes", len(data))
	s.ensureContainer(ctx, containerName)

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	if _, err := s.client.UploadBuffer(ctx, containerName, blobName, data, opts); err != nil {
		slog.Error("failed to upload blob", "container", containerName, "blob_name", blobName, "error", err)
		return fmt.Errorf("failed to upload blob %s/%s: %w", containerName, blobName, err)
	}
	slog.Info("successfully uploaded blob", "container", containerName, "blob_name", blobName)
	return nil
}

// DownloadBytes returns the content and content type of a blob.
func (s *BlobService) DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, string, error) {
	slog.Info("downloading blob", "container", containerName, "blob_name", blobName)
	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		slog.Error("failed to download blob", "container", containerName, "blob_name", blobName, "error", err)
		return nil, "", fmt.Errorf("failed to download blob %s/%s: %w", containerName, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("failed to read blob content", "container", containerName, "blob_name", blobName, "error", err)
		return nil, "", fmt.Errorf("failed to read blob content: %w", err)
	}

	contentType := ""
	if resp.ContentType != nil {
		contentType = *resp.ContentType
	}
	slog.Info("successfully downloaded blob", "container", containerName, "blob_name", blobName, "size_bytes", len(data))
	return data, contentType, nil
}
