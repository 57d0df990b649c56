package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRowKey(t *testing.T) {
	tx := models.Transaction{Date: "2025-09-15", Merchant: "Walmart", Amount: decimal.RequireFromString("-38.25")}

	k0 := GenerateRowKey(tx, 0)
	assert.Len(t, k0, 64)
	assert.Equal(t, k0, GenerateRowKey(tx, 0))
	assert.NotEqual(t, k0, GenerateRowKey(tx, 1))

	tx.Merchant = "Target"
	assert.NotEqual(t, k0, GenerateRowKey(tx, 0))
}

func TestToEntity_RequiresID(t *testing.T) {
	_, err := toEntity(models.Transaction{})
	assert.Error(t, err)
}

func TestToEntity_OmitsAbsentFields(t *testing.T) {
	e, err := toEntity(models.Transaction{ID: "a", Amount: decimal.RequireFromString("-1.50"), NeedsReceipt: true})
	require.NoError(t, err)

	assert.Equal(t, transactionsPartition, e["PartitionKey"])
	assert.Equal(t, "-1.5", e["Amount"])
	assert.Equal(t, true, e["NeedsReceipt"])
	assert.NotContains(t, e, "EcoScore")
	assert.NotContains(t, e, "CO2Kg")
	assert.NotContains(t, e, "Receipt")
	assert.NotContains(t, e, "EcoClassification")
}

func TestFromEntity(t *testing.T) {
	receipt := models.ReceiptAttachment{
		RawText:    "Walmart\nTOTAL $38.25",
		FileName:   "r.jpg",
		AttachedAt: time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
		Parsed:     models.ParsedReceipt{Merchant: "Walmart", Items: []models.LineItem{}},
	}
	receiptJson, _ := json.Marshal(receipt)

	// numbers come back from the table service as JSON numbers; older rows stored Amount as a double
	raw, _ := json.Marshal(map[string]any{
		"odata.etag":        `W/"datetime'2025-09-20T00%3A00%3A00Z'"`,
		"PartitionKey":      transactionsPartition,
		"RowKey":            "abc",
		"Date":              "2025-09-15",
		"Merchant":          "Walmart",
		"Category":          "Groceries",
		"Amount":            -38.25,
		"Cashback":          "1.15",
		"CO2Kg":             "0.525",
		"EcoScore":          8,
		"EcoClassification": "unknown",
		"NeedsReceipt":      true,
		"Receipt":           string(receiptJson),
	})

	tx, err := fromEntity(raw)
	require.NoError(t, err)

	assert.Equal(t, "abc", tx.ID)
	assert.Equal(t, models.CategoryGroceries, tx.Category)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-38.25")))
	assert.True(t, tx.Cashback.Equal(decimal.RequireFromString("1.15")))
	require.True(t, tx.CO2Kg.Valid)
	require.NotNil(t, tx.EcoScore)
	assert.Equal(t, 8, *tx.EcoScore)
	assert.Equal(t, models.EcoUnknown, tx.EcoClassification)
	assert.True(t, tx.NeedsReceipt)
	assert.NotEmpty(t, tx.ETag)
	require.NotNil(t, tx.Receipt)
	assert.Equal(t, "r.jpg", tx.Receipt.FileName)
	assert.Equal(t, "Walmart", tx.Receipt.Parsed.Merchant)
}

func TestFromEntity_BadReceipt(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"RowKey": "abc", "Receipt": "{not json"})
	_, err := fromEntity(raw)
	assert.Error(t, err)
}
