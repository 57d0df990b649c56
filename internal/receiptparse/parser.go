// Package receiptparse turns raw OCR text from a photographed receipt into
// structured fields. Every extraction is best effort: a field that cannot be
// found is reported as absent, never as an error.
package receiptparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DrKat0m/GreenBucks/internal/models"
	"github.com/shopspring/decimal"
)

var (
	reLineBreak = regexp.MustCompile(`\r?\n`)

	// 2025-09-15 or 2025/9/15
	reDateYMD = regexp.MustCompile(`\b(20\d{2})[-/](\d{1,2})[-/](\d{1,2})\b`)
	// 09/15/2025 or 9-15-2025
	reDateMDY = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](20\d{2})\b`)

	reMerchantSkip = regexp.MustCompile(`(?i)order|store|receipt|number|transaction`)
	reLineItem     = regexp.MustCompile(`(.+?)\s+\$([0-9]+(?:\.[0-9]{2})?)`)
)

// totalLabels is tried in order; the first label with an amount wins.
var totalLabels = []string{"TOTAL", "Amount Due", "Balance"}

// Parse extracts merchant, date, money fields and line items from OCR text.
// It is deterministic and never fails; empty input yields an all-absent receipt
// with the UnknownMerchant sentinel.
func Parse(rawText string) models.ParsedReceipt {
	return models.ParsedReceipt{
		Merchant: GuessMerchant(rawText),
		Date:     ParseDate(rawText),
		Subtotal: ParseSubtotal(rawText),
		Tax:      ParseTax(rawText),
		Total:    ParseTotal(rawText),
		Items:    ParseLineItems(rawText),
	}
}

// ParseDate returns the first year-first date, or failing that the first
// month-first date, normalized to YYYY-MM-DD. Month and day are not range checked.
func ParseDate(text string) *string {
	if m := reDateYMD.FindStringSubmatch(text); m != nil {
		return normalizeDate(m[1], m[2], m[3])
	}
	if m := reDateMDY.FindStringSubmatch(text); m != nil {
		return normalizeDate(m[3], m[1], m[2])
	}
	return nil
}

func normalizeDate(year, month, day string) *string {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	s := fmt.Sprintf("%s-%02d-%02d", year, m, d)
	return &s
}

// ParseMoney finds "<label>[:] [$]<amount>" case-insensitively and returns the
// first amount, or an invalid NullDecimal when the label has no amount.
func ParseMoney(label, text string) decimal.NullDecimal {
	re := moneyPattern(label)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseTotal tries TOTAL, then Amount Due, then Balance.
func ParseTotal(text string) decimal.NullDecimal {
	for _, label := range totalLabels {
		if v := ParseMoney(label, text); v.Valid {
			return v
		}
	}
	return decimal.NullDecimal{}
}

// ParseSubtotal returns the amount labelled "Subtotal".
func ParseSubtotal(text string) decimal.NullDecimal {
	return ParseMoney("Subtotal", text)
}

// ParseTax returns the amount labelled "Tax".
func ParseTax(text string) decimal.NullDecimal {
	return ParseMoney("Tax", text)
}

// GuessMerchant returns the first line that does not look like a receipt header.
func GuessMerchant(text string) string {
	for _, line := range splitLines(text) {
		if reMerchantSkip.MatchString(line) {
			continue
		}
		if utf8.RuneCountInString(line) < 3 {
			continue
		}
		return line
	}
	return models.UnknownMerchant
}

// ParseLineItems returns every line shaped like "<name> ... $<amount>", in order.
// Summary lines such as "TOTAL $42.00" match the same shape and are kept;
// use PurchasedItems to drop them.
func ParseLineItems(text string) []models.LineItem {
	items := []models.LineItem{}
	for _, line := range reLineBreak.Split(text, -1) {
		m := reLineItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		price, err := decimal.NewFromString(m[2])
		if err != nil {
			continue
		}
		items = append(items, models.LineItem{
			Name:  strings.TrimSpace(m[1]),
			Price: price,
		})
	}
	return items
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range reLineBreak.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
