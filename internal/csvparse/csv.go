package csvparse

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
)

// merchantHeaders lists the accepted names of the merchant column, in priority order.
var merchantHeaders = []string{"Name", "Merchant", "Description"}

// ParseCSV parses a bank export (Date, Name, Amount, Category) into transactions.
// It returns the valid transactions and an error message per rejected row.
// Amounts keep the bank's sign: purchases are negative.
func ParseCSV(content string) ([]models.Transaction, []string) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Read all records
	records, err := reader.ReadAll()
	if err != nil {
		return nil, []string{fmt.Sprintf("Failed to read CSV: %v", err)}
	}

	if len(records) < 2 {
		return []models.Transaction{}, nil // Empty or header-only
	}

	headers := parseHeaders(records[0])
	transactions := []models.Transaction{}
	var errors []string

	for i, record := range records[1:] {
		rowNum := i + 2
		if isBlank(record) {
			continue
		}
		if len(record) < len(headers) {
			errors = append(errors, fmt.Sprintf("Row %d: Not enough fields", rowNum))
			continue
		}

		rowMap := make(map[string]string)
		for j, header := range headers {
			rowMap[header] = strings.TrimSpace(record[j])
		}

		t, err := mapToTransaction(rowMap)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		transactions = append(transactions, *t)
	}

	return transactions, errors
}

func parseHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return headers
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func mapToTransaction(row map[string]string) (*models.Transaction, error) {
	dateStr := row["Date"]
	if dateStr == "" {
		return nil, fmt.Errorf("missing Date")
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return nil, fmt.Errorf("invalid Date format: %s", dateStr)
	}

	var merchant string
	for _, h := range merchantHeaders {
		if merchant = row[h]; merchant != "" {
			break
		}
	}
	if merchant == "" {
		return nil, fmt.Errorf("missing Name")
	}

	amountStr := strings.ReplaceAll(strings.TrimPrefix(row["Amount"], "$"), ",", "")
	if amountStr == "" {
		return nil, fmt.Errorf("missing Amount")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Amount: %s", row["Amount"])
	}

	return &models.Transaction{
		Date:     dateStr,
		Merchant: merchant,
		Amount:   amount,
		Category: models.Category(row["Category"]),
	}, nil
}
