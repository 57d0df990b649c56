package receiptparse

import (
	"regexp"
	"sync"

	"github.com/DrKat0m/GreenBucks/internal/models"
)

var reSummaryLabel = regexp.MustCompile(`(?i)^\s*(sub\s*-?\s*total|total|sales\s+tax|tax|amount\s+due|balance)\b`)

var (
	moneyMu       sync.Mutex
	moneyPatterns = map[string]*regexp.Regexp{}
)

// moneyPattern compiles (and caches) the amount pattern for a label.
// The leading word boundary keeps "TOTAL" from matching inside "Subtotal".
func moneyPattern(label string) *regexp.Regexp {
	moneyMu.Lock()
	defer moneyMu.Unlock()
	if re, ok := moneyPatterns[label]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(label) + `\s*:?\s*\$?\s*([0-9]+(?:\.[0-9]{2})?)`)
	moneyPatterns[label] = re
	return re
}

// IsSummaryLine reports whether an item name is a receipt summary label
// (total, subtotal, tax, amount due, balance) rather than a purchase.
func IsSummaryLine(name string) bool {
	return reSummaryLabel.MatchString(name)
}

// PurchasedItems returns the items that are not summary lines, keeping order.
func PurchasedItems(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		if IsSummaryLine(it.Name) {
			continue
		}
		out = append(out, it)
	}
	return out
}
