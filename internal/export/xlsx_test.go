package export

import (
	"bytes"
	"testing"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTransactionsXLSX(t *testing.T) {
	score := 8
	tier := models.TierEcoPlus
	txs := []models.Transaction{
		{
			ID:       "tx-1",
			Date:     "2025-09-15",
			Merchant: "Walmart",
			Amount:   decimal.RequireFromString("-38.25"),
			EcoScore: &score,
			Cashback: decimal.RequireFromString("1.15"),
			CO2Kg:    decimal.NewNullDecimal(decimal.RequireFromString("0.525")),
			Receipt: &models.ReceiptAttachment{
				FileName: "walmart.jpg",
				ScoredItems: []models.ItemEcoScore{
					{
						Item:  models.LineItem{Name: "Bananas", Price: decimal.RequireFromString("3.50")},
						Score: &score,
						Tier:  &tier,
						CO2Kg: decimal.NewNullDecimal(decimal.RequireFromString("0.525")),
					},
					{Item: models.LineItem{Name: "Socks", Price: decimal.RequireFromString("4")}},
				},
			},
		},
		{ID: "tx-2", Date: "2025-09-16", Merchant: "Target", Amount: decimal.RequireFromString("-12"), NeedsReceipt: true},
	}

	data, err := TransactionsXLSX(txs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetTransactions, SheetReceiptItems}, f.GetSheetList())

	rows, err := f.GetRows(SheetTransactions)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Merchant", rows[0][1])
	assert.Equal(t, "Walmart", rows[1][1])
	assert.Equal(t, "8", rows[1][4])
	assert.Equal(t, "eco+", rows[1][5])
	assert.Equal(t, "0.525", rows[1][8])
	assert.Equal(t, "walmart.jpg", rows[1][10])
	assert.Equal(t, "TRUE", rows[2][9])

	items, err := f.GetRows(SheetReceiptItems)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Bananas", items[1][2])
	assert.Equal(t, "eco+", items[1][5])
	assert.Equal(t, "0.525", items[1][6])
	assert.Equal(t, "Socks", items[2][2])
}

func TestTransactionsXLSX_Empty(t *testing.T) {
	data, err := TransactionsXLSX(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
