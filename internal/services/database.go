package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrConcurrentUpdate means the row changed since it was read.
	ErrConcurrentUpdate = errors.New("transaction was modified concurrently")
)

const transactionsPartition = "TRANSACTIONS"

// DatabaseService handles interactions with Azure Table Storage.
type DatabaseService struct {
	serviceClient     *aztables.ServiceClient
	transactionsTable string
}

// NewDatabaseService creates a new DatabaseService instance.
func NewDatabaseService() (*DatabaseService, error) {
	tableURL := os.Getenv("TABLE_SERVICE_URL")
	if tableURL == "" {
		return nil, fmt.Errorf("TABLE_SERVICE_URL environment variable is required")
	}

	transactionsTable := os.Getenv("TRANSACTIONS_TABLE")
	if transactionsTable == "" {
		transactionsTable = "transactions"
	}

	var client *aztables.ServiceClient

	// Check if running locally with Azurite (http endpoint)
	if isLocal(tableURL) {
		slog.Info("using Azurite credentials for database service")
		name, key := getAzuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		var err2 error
		client, err2 = aztables.NewServiceClientWithSharedKey(tableURL, cred, nil)
		if err2 != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err2)
		}
	} else {
		// Production: Managed Identity
		slog.Info("using default Azure credentials for database service")
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		var err2 error
		client, err2 = aztables.NewServiceClient(tableURL, cred, nil)
		if err2 != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err2)
		}
	}

	svc := &DatabaseService{
		serviceClient:     client,
		transactionsTable: transactionsTable,
	}

	// Ensure tables exist
	if err := svc.CreateTables(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("database service initialized successfully",
		"table_url", tableURL,
		"transactions_table", transactionsTable,
	)
	return svc, nil
}

// CreateTables ensures all required tables exist in Azure Table Storage.
func (s *DatabaseService) CreateTables(ctx context.Context) error {
	_, err := s.serviceClient.CreateTable(ctx, s.transactionsTable, nil)
	if err != nil {
		// Ignore error if table already exists
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", s.transactionsTable, err)
	}
	return nil
}

func (s *DatabaseService) getClient() *aztables.Client {
	return s.serviceClient.NewClient(s.transactionsTable)
}

// GenerateRowKey generates a deterministic unique key for a transaction.
// index separates otherwise identical rows within one import.
func GenerateRowKey(t models.Transaction, index int) string {
	uniqueString := fmt.Sprintf("%s|%s|%s|%d", t.Date, t.Merchant, t.Amount.String(), index)
	hash := sha256.Sum256([]byte(uniqueString))
	return hex.EncodeToString(hash[:])
}

// CreateTransactions inserts transactions that are not stored yet.
// Rows are deduplicated by their generated key, so importing the same statement
// twice is a no-op. Returns the transactions that were actually new, with IDs set.
func (s *DatabaseService) CreateTransactions(ctx context.Context, transactions []models.Transaction) ([]models.Transaction, error) {
	if len(transactions) == 0 {
		return []models.Transaction{}, nil
	}

	client := s.getClient()

	// 1. Calculate RowKeys
	occurrences := make(map[string]int)
	keyed := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.ID == "" {
			sig := fmt.Sprintf("%s|%s|%s", t.Date, t.Merchant, t.Amount.String())
			occurrences[sig]++
			t.ID = GenerateRowKey(t, occurrences[sig]-1)
		}
		keyed = append(keyed, t)
	}

	// 2. Query existing row keys for deduplication
	filter := fmt.Sprintf("PartitionKey eq '%s'", transactionsPartition)
	selectFields := "RowKey"
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
		Select: &selectFields,
	})

	existingKeys := make(map[string]bool)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list existing transactions: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err == nil {
				if rk, ok := parsed["RowKey"].(string); ok {
					existingKeys[rk] = true
				}
			}
		}
	}

	// 3. Filter and Prepare Batch
	var batch []aztables.TransactionAction
	var newTransactions []models.Transaction
	importedAt := time.Now().UTC()

	for _, t := range keyed {
		if existingKeys[t.ID] {
			continue
		}
		existingKeys[t.ID] = true
		newTransactions = append(newTransactions, t)

		entity, err := toEntity(t)
		if err != nil {
			return nil, err
		}
		entity["ImportedAt"] = importedAt.Format(time.RFC3339)

		entityJson, _ := json.Marshal(entity)
		batch = append(batch, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     entityJson,
		})
	}

	// 4. Submit Batch
	const batchSize = 100
	for i := 0; i < len(batch); i += batchSize {
		end := min(i+batchSize, len(batch))
		if _, err := client.SubmitTransaction(ctx, batch[i:end], nil); err != nil {
			return nil, fmt.Errorf("failed to submit transaction batch %d-%d: %w", i, end, err)
		}
	}

	slog.Info("transactions saved", "received", len(transactions), "new", len(newTransactions))
	if newTransactions == nil {
		newTransactions = []models.Transaction{}
	}
	return newTransactions, nil
}

// GetTransaction reads one transaction with its current ETag.
func (s *DatabaseService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	resp, err := s.getClient().GetEntity(ctx, transactionsPartition, id, nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}

	t, err := fromEntity(resp.Value)
	if err != nil {
		return nil, err
	}
	t.ETag = string(resp.ETag)
	return &t, nil
}

// ListTransactions returns all transactions, newest first.
func (s *DatabaseService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.list(ctx, fmt.Sprintf("PartitionKey eq '%s'", transactionsPartition))
}

// ListTransactionsNeedingReceipt returns the transactions still waiting for a receipt.
func (s *DatabaseService) ListTransactionsNeedingReceipt(ctx context.Context) ([]models.Transaction, error) {
	return s.list(ctx, fmt.Sprintf("PartitionKey eq '%s' and NeedsReceipt eq true", transactionsPartition))
}

func (s *DatabaseService) list(ctx context.Context, filter string) ([]models.Transaction, error) {
	pager := s.getClient().NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
	})

	transactions := []models.Transaction{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}
		for _, entity := range resp.Entities {
			t, err := fromEntity(entity)
			if err != nil {
				slog.Warn("skipping unreadable transaction entity", "error", err)
				continue
			}
			transactions = append(transactions, t)
		}
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date > transactions[j].Date
	})
	return transactions, nil
}

// UpdateTransaction replaces a stored transaction. When t.ETag is set the write
// only succeeds if the row has not changed since it was read.
func (s *DatabaseService) UpdateTransaction(ctx context.Context, t models.Transaction) (*models.Transaction, error) {
	entity, err := toEntity(t)
	if err != nil {
		return nil, err
	}
	entityJson, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	opts := &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace}
	if t.ETag != "" {
		etag := azcore.ETag(t.ETag)
		opts.IfMatch = &etag
	} else {
		etag := azcore.ETagAny
		opts.IfMatch = &etag
	}

	resp, err := s.getClient().UpdateEntity(ctx, entityJson, opts)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) {
			switch azErr.StatusCode {
			case http.StatusPreconditionFailed:
				return nil, fmt.Errorf("%w: %s", ErrConcurrentUpdate, t.ID)
			case http.StatusNotFound:
				return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, t.ID)
			}
		}
		return nil, fmt.Errorf("failed to update transaction %s: %w", t.ID, err)
	}

	out := t
	out.ETag = string(resp.ETag)
	slog.Info("transaction updated", "transaction_id", t.ID)
	return &out, nil
}

func toEntity(t models.Transaction) (map[string]any, error) {
	if t.ID == "" {
		return nil, fmt.Errorf("transaction has no ID")
	}
	entity := map[string]any{
		"PartitionKey": transactionsPartition,
		"RowKey":       t.ID,
		"Date":         t.Date,
		"Merchant":     t.Merchant,
		"Category":     string(t.Category),
		"Amount":       t.Amount.String(),
		"Cashback":     t.Cashback.String(),
		"NeedsReceipt": t.NeedsReceipt,
	}
	if t.EcoScore != nil {
		entity["EcoScore"] = *t.EcoScore
	}
	if t.EcoClassification != "" {
		entity["EcoClassification"] = string(t.EcoClassification)
	}
	if t.CO2Kg.Valid {
		entity["CO2Kg"] = t.CO2Kg.Decimal.String()
	}
	if t.Receipt != nil {
		receiptJson, err := json.Marshal(t.Receipt)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal receipt: %w", err)
		}
		entity["Receipt"] = string(receiptJson)
	}
	return entity, nil
}

func fromEntity(data []byte) (models.Transaction, error) {
	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	getString := func(key string) string {
		if v, ok := parsed[key].(string); ok {
			return v
		}
		return ""
	}

	getDecimal := func(key string) (decimal.Decimal, bool) {
		switch v := parsed[key].(type) {
		case string:
			d, err := decimal.NewFromString(v)
			return d, err == nil
		case float64:
			return decimal.NewFromFloat(v), true
		}
		return decimal.Zero, false
	}

	t := models.Transaction{
		ID:                getString("RowKey"),
		Date:              getString("Date"),
		Merchant:          getString("Merchant"),
		Category:          models.Category(getString("Category")),
		EcoClassification: models.EcoClassification(getString("EcoClassification")),
		ETag:              getString("odata.etag"),
	}
	t.Amount, _ = getDecimal("Amount")
	t.Cashback, _ = getDecimal("Cashback")
	if d, ok := getDecimal("CO2Kg"); ok {
		t.CO2Kg = decimal.NewNullDecimal(d)
	}
	if v, ok := parsed["NeedsReceipt"].(bool); ok {
		t.NeedsReceipt = v
	}
	if v, ok := parsed["EcoScore"].(float64); ok {
		score := int(v)
		t.EcoScore = &score
	}
	if raw := getString("Receipt"); raw != "" {
		var r models.ReceiptAttachment
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return models.Transaction{}, fmt.Errorf("failed to unmarshal receipt of %s: %w", t.ID, err)
		}
		t.Receipt = &r
	}
	return t, nil
}
