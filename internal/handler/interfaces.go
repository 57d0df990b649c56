package handler

import (
	"context"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/DrKat0m/GreenBucks/internal/ocr"
)

// DatabaseClient defines the interface for transaction storage used by handlers.
type DatabaseClient interface {
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListTransactionsNeedingReceipt(ctx context.Context) ([]models.Transaction, error)
	CreateTransactions(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error)
}

// BlobClient defines the interface for receipt image storage used by handlers.
type BlobClient interface {
	UploadBytes(ctx context.Context, containerName, blobName string, data []byte, contentType string) error
	DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, string, error)
}

// QueueClient defines the interface for queue operations used by handlers.
type QueueClient interface {
	EnqueueMessage(ctx context.Context, queueName string, message any) error
}

// EmailClient defines the interface for email operations used by handlers.
type EmailClient interface {
	SendReceiptReminder(ctx context.Context, recipients []string, transactions []models.Transaction) error
}

// OCRClient reads the text off a receipt image.
type OCRClient interface {
	ExtractText(ctx context.Context, image []byte, contentType string) (ocr.Result, error)
}
