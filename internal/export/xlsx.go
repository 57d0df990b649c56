// Package export renders transactions as spreadsheets.
package export

import (
	"fmt"

	"github.com/DrKat0m/GreenBucks/internal/eco"
	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	SheetTransactions = "Transactions"
	SheetReceiptItems = "Receipt Items"
)

var transactionHeaders = []string{
	"Date",
	"Merchant",
	"Category",
	"Amount",
	"Eco Score",
	"Eco Tier",
	"Classification",
	"Cashback",
	"CO2 (kg)",
	"Needs Receipt",
	"Receipt File",
}

var itemHeaders = []string{
	"Transaction ID",
	"Merchant",
	"Item",
	"Price",
	"Item Score",
	"Item Tier",
	"Item CO2 (kg)",
}

// TransactionsXLSX builds a workbook with one row per transaction and a second
// sheet listing the scored receipt lines.
func TransactionsXLSX(transactions []models.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// rename the default sheet rather than leaving an empty "Sheet1"
	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetReceiptItems); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	writeRow(f, SheetTransactions, 1, toAny(transactionHeaders))
	writeRow(f, SheetReceiptItems, 1, toAny(itemHeaders))

	itemRow := 2
	for i, t := range transactions {
		var score, tier any = "", ""
		if t.EcoScore != nil {
			score = *t.EcoScore
			tier = string(eco.TierForScore(*t.EcoScore))
		}
		co2 := ""
		if t.CO2Kg.Valid {
			co2 = t.CO2Kg.Decimal.StringFixed(3)
		}
		receiptFile := ""
		if t.Receipt != nil {
			receiptFile = t.Receipt.FileName
		}

		writeRow(f, SheetTransactions, i+2, []any{
			t.Date,
			t.Merchant,
			string(t.Category),
			t.Amount.InexactFloat64(),
			score,
			tier,
			string(t.EcoClassification),
			t.Cashback.InexactFloat64(),
			co2,
			t.NeedsReceipt,
			receiptFile,
		})

		if t.Receipt == nil {
			continue
		}
		for _, it := range t.Receipt.ScoredItems {
			var itemScore, itemTier any = "", ""
			if it.Score != nil {
				itemScore = *it.Score
			}
			if it.Tier != nil {
				itemTier = string(*it.Tier)
			}
			itemCO2 := ""
			if it.CO2Kg.Valid {
				itemCO2 = it.CO2Kg.Decimal.StringFixed(3)
			}
			writeRow(f, SheetReceiptItems, itemRow, []any{
				t.ID,
				t.Merchant,
				it.Item.Name,
				it.Item.Price.InexactFloat64(),
				itemScore,
				itemTier,
				itemCO2,
			})
			itemRow++
		}
	}

	_ = f.SetColWidth(SheetTransactions, "A", "A", 12) // date
	_ = f.SetColWidth(SheetTransactions, "B", "B", 28) // merchant
	_ = f.SetColWidth(SheetTransactions, "C", "C", 16)
	_ = f.SetColWidth(SheetTransactions, "D", "J", 13)
	_ = f.SetColWidth(SheetTransactions, "K", "K", 36) // file
	_ = f.SetColWidth(SheetReceiptItems, "A", "A", 66) // sha256 ids
	_ = f.SetColWidth(SheetReceiptItems, "B", "C", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
