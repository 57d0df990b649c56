package handler

import (
	"context"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/DrKat0m/GreenBucks/internal/ocr"
)

// MockDatabaseClient is a mock implementation of DatabaseClient
type MockDatabaseClient struct {
	GetTransactionFunc                 func(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactionsFunc               func(ctx context.Context) ([]models.Transaction, error)
	ListTransactionsNeedingReceiptFunc func(ctx context.Context) ([]models.Transaction, error)
	CreateTransactionsFunc             func(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error)
	UpdateTransactionFunc              func(ctx context.Context, t models.Transaction) (*models.Transaction, error)
}

func (m *MockDatabaseClient) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDatabaseClient) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx)
	}
	return nil, nil
}

func (m *MockDatabaseClient) ListTransactionsNeedingReceipt(ctx context.Context) ([]models.Transaction, error) {
	if m.ListTransactionsNeedingReceiptFunc != nil {
		return m.ListTransactionsNeedingReceiptFunc(ctx)
	}
	return nil, nil
}

func (m *MockDatabaseClient) CreateTransactions(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error) {
	if m.CreateTransactionsFunc != nil {
		return m.CreateTransactionsFunc(ctx, transactions)
	}
	return transactions, nil
}

func (m *MockDatabaseClient) UpdateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	if m.UpdateTransactionFunc != nil {
		return m.UpdateTransactionFunc(ctx, t)
	}
	return &t, nil
}

// MockBlobClient is a mock implementation of BlobClient
type MockBlobClient struct {
	UploadBytesFunc   func(ctx context.Context, containerName, blobName string, data []byte, contentType string) error
	DownloadBytesFunc func(ctx context.Context, containerName, blobName string) ([]byte, string, error)
}

func (m *MockBlobClient) UploadBytes(ctx context.Context, containerName, blobName string, data []byte, contentType string) error {
	if m.UploadBytesFunc != nil {
		return m.UploadBytesFunc(ctx, containerName, blobName, data, contentType)
	}
	return nil
}

func (m *MockBlobClient) DownloadBytes(ctx context.Context, containerName, blobName string) ([]byte, string, error) {
	if m.DownloadBytesFunc != nil {
		return m.DownloadBytesFunc(ctx, containerName, blobName)
	}
	return nil, "", nil
}

// MockQueueClient is a mock implementation of QueueClient
type MockQueueClient struct {
	EnqueueMessageFunc func(ctx context.Context, queueName string, message any) error
}

func (m *MockQueueClient) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	if m.EnqueueMessageFunc != nil {
		return m.EnqueueMessageFunc(ctx, queueName, message)
	}
	return nil
}

// MockEmailClient is a mock implementation of EmailClient
type MockEmailClient struct {
	SendReceiptReminderFunc func(ctx context.Context, recipients []string, transactions []models.Transaction) error
}

func (m *MockEmailClient) SendReceiptReminder(ctx context.Context, recipients []string, transactions []models.Transaction) error {
	if m.SendReceiptReminderFunc != nil {
		return m.SendReceiptReminderFunc(ctx, recipients, transactions)
	}
	return nil
}

// MockOCRClient is a mock implementation of OCRClient
type MockOCRClient struct {
	ExtractTextFunc func(ctx context.Context, image []byte, contentType string) (ocr.Result, error)
}

func (m *MockOCRClient) ExtractText(ctx context.Context, image []byte, contentType string) (ocr.Result, error) {
	if m.ExtractTextFunc != nil {
		return m.ExtractTextFunc(ctx, image, contentType)
	}
	return ocr.Result{}, nil
}
